//go:build linux

package touch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// requestIRQ watches the PENIRQ line for edges. The line is active
// low: a falling edge is pen down, rising is pen up.
func requestIRQ(pin int, onPress, onRelease func(time.Time)) (io.Closer, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("invalid irq pin %d", pin)
	}

	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", e.Name()))
		}
	}

	handler := func(evt gpiocdev.LineEvent) {
		now := time.Now()
		switch evt.Type {
		case gpiocdev.LineEventFallingEdge:
			onPress(now)
		case gpiocdev.LineEventRisingEdge:
			onRelease(now)
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(handler),
			gpiocdev.WithConsumer("sonde-hunter-touch"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &irqLine{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("gpio line %q not found (or busy)", lineName)
}

type irqLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (l *irqLine) Close() error {
	if l == nil || l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	if l.chip != nil {
		_ = l.chip.Close()
		l.chip = nil
	}
	return err
}
