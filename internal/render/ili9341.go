package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/DB8LE/sonde-hunter-pi/internal/fusion"
)

// ILI9341 register set, per the panel datasheet.
const (
	regSWReset    = 0x01
	regSleepOut   = 0x11
	regDisplayOn  = 0x29
	regColumnAddr = 0x2A
	regPageAddr   = 0x2B
	regRAMWrite   = 0x2C
	regMADCtl     = 0x36
	regPixFmt     = 0x3A
)

// spidev transfer buffer limit
const maxChunk = 4096

type Config struct {
	SPIDevice string
	DCPin     int
	ResetPin  int
	Flip      bool
}

// ILI9341 drives the panel over SPI and renders fused frames through
// the shared text layout.
type ILI9341 struct {
	port spi.PortCloser
	conn spi.Conn
	dc   gpio.PinIO
	rst  gpio.PinIO
}

func OpenILI9341(cfg Config) (*ILI9341, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIDevice)
	if err != nil {
		return nil, fmt.Errorf("open spi %s: %w", cfg.SPIDevice, err)
	}
	conn, err := port.Connect(16*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect spi %s: %w", cfg.SPIDevice, err)
	}

	d := &ILI9341{port: port, conn: conn}

	d.dc = gpioreg.ByName(fmt.Sprintf("GPIO%d", cfg.DCPin))
	if d.dc == nil {
		_ = port.Close()
		return nil, fmt.Errorf("dc pin GPIO%d not found", cfg.DCPin)
	}
	if cfg.ResetPin > 0 {
		d.rst = gpioreg.ByName(fmt.Sprintf("GPIO%d", cfg.ResetPin))
		if d.rst == nil {
			_ = port.Close()
			return nil, fmt.Errorf("reset pin GPIO%d not found", cfg.ResetPin)
		}
	}

	if err := d.init(cfg.Flip); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("ili9341 init: %w", err)
	}
	return d, nil
}

func (d *ILI9341) init(flip bool) error {
	if d.rst != nil {
		_ = d.rst.Out(gpio.Low)
		time.Sleep(50 * time.Millisecond)
		_ = d.rst.Out(gpio.High)
		time.Sleep(120 * time.Millisecond)
	}
	if err := d.command(regSWReset); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)

	// The power-on defaults are usable; only the mode registers need
	// setting. MADCTL rotates the native 240x320 portrait panel into
	// landscape (BGR order, row/column exchange).
	madctl := byte(0x28)
	if flip {
		madctl = 0xE8
	}
	if err := d.command(regMADCtl, madctl); err != nil {
		return err
	}
	// 16 bit RGB565 pixels.
	if err := d.command(regPixFmt, 0x55); err != nil {
		return err
	}
	if err := d.command(regSleepOut); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return d.command(regDisplayOn)
}

func (d *ILI9341) command(cmd byte, args ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.writeData(args)
}

func (d *ILI9341) writeData(b []byte) error {
	for len(b) > 0 {
		n := len(b)
		if n > maxChunk {
			n = maxChunk
		}
		if err := d.conn.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// Draw renders one fused frame and pushes the full framebuffer.
func (d *ILI9341) Draw(f fusion.Frame) error {
	img := compose(f)

	if err := d.command(regColumnAddr, 0, 0, byte((Width-1)>>8), byte((Width-1)&0xFF)); err != nil {
		return err
	}
	if err := d.command(regPageAddr, 0, 0, byte((Height-1)>>8), byte((Height-1)&0xFF)); err != nil {
		return err
	}
	if err := d.command(regRAMWrite); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.writeData(toRGB565(img))
}

func (d *ILI9341) Close() error {
	if d == nil || d.port == nil {
		return nil
	}
	return d.port.Close()
}

var (
	colorText  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorLabel = color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}
)

// compose draws the frame's text layout into an offscreen buffer.
func compose(f fusion.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	tf := Build(f)

	if tf.Geo != "" {
		drawQR(img, tf.Geo)
	} else {
		if tf.Head != "" {
			drawText(img, 5, 5, tf.Head, colorText)
		}
		if tf.Body != "" {
			drawText(img, 5, tf.BodyY, tf.Body, colorText)
		}
	}

	drawText(img, 5, 215, tf.Status, colorText)
	drawText(img, 230, 215, tf.QRLabel, colorLabel)
	drawText(img, 265, 215, tf.Clock, colorText)
	return img
}

func drawText(img *image.RGBA, x, y int, s string, c color.Color) {
	face := basicfont.Face7x13
	for i, line := range strings.Split(s, "\n") {
		dr := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(x, y+face.Ascent+i*(face.Height+2)),
		}
		dr.DrawString(line)
	}
}

// drawQR paints the geolocation QR into the top-left corner, sized so
// a phone camera can pick it up across the car.
func drawQR(img *image.RGBA, content string) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		drawText(img, 5, 5, "QR encode failed", colorText)
		return
	}
	code := qr.Image(200)
	b := code.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x-b.Min.X, y-b.Min.Y, code.At(x, y))
		}
	}
}

// toRGB565 converts the offscreen buffer to the panel's pixel format,
// big endian.
func toRGB565(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			r := img.Pix[i]
			g := img.Pix[i+1]
			bl := img.Pix[i+2]
			v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
			out = append(out, byte(v>>8), byte(v))
		}
	}
	return out
}
