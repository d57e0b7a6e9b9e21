package touch

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// XPT2046 control bytes, from the controller datasheet.
const (
	cmdGetX = 0b11010000
	cmdGetY = 0b10010000
)

// XPT2046 reads raw touch samples from the controller over SPI.
// Chip select is driven manually because the panel usually hangs off
// a shared bus with the display.
type XPT2046 struct {
	port spi.PortCloser
	conn spi.Conn
	cs   gpio.PinIO
	cal  Calibration
}

func OpenXPT2046(spiDev string, csPin int, cal Calibration) (*XPT2046, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("open spi %s: %w", spiDev, err)
	}
	conn, err := port.Connect(2*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect spi %s: %w", spiDev, err)
	}

	csName := fmt.Sprintf("GPIO%d", csPin)
	cs := gpioreg.ByName(csName)
	if cs == nil {
		_ = port.Close()
		return nil, fmt.Errorf("cs pin %q not found", csName)
	}
	// Active low; start deselected.
	if err := cs.Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("cs pin %q: %w", csName, err)
	}

	return &XPT2046{port: port, conn: conn, cs: cs, cal: cal}, nil
}

// command sends one control byte and assembles the 12-bit response.
func (d *XPT2046) command(cmd byte) (int, error) {
	w := []byte{cmd, 0x00, 0x00}
	r := make([]byte, len(w))

	if err := d.cs.Out(gpio.Low); err != nil {
		return 0, err
	}
	txErr := d.conn.Tx(w, r)
	if err := d.cs.Out(gpio.High); err != nil && txErr == nil {
		txErr = err
	}
	if txErr != nil {
		return 0, txErr
	}

	return int(r[1])<<4 | int(r[2])>>4, nil
}

// RawTouch reads one raw coordinate pair. ok=false when the bus read
// fails or the reading is outside the calibrated extents.
func (d *XPT2046) RawTouch() (int, int, bool) {
	x, err := d.command(cmdGetX)
	if err != nil {
		return 0, 0, false
	}
	y, err := d.command(cmdGetY)
	if err != nil {
		return 0, 0, false
	}
	if !d.cal.contains(x, y) {
		return 0, 0, false
	}
	return x, y, true
}

func (d *XPT2046) Close() error {
	if d == nil || d.port == nil {
		return nil
	}
	return d.port.Close()
}
