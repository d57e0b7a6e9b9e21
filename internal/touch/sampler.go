package touch

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"
)

// irqSettle is the delay after a press before the release signal may
// clear the in-progress flag again.
const irqSettle = 100 * time.Millisecond

type Config struct {
	// SPIDevice is the periph.io SPI port name, e.g. "SPI0.1".
	SPIDevice string
	// CSPin is the BCM GPIO for chip select.
	CSPin int
	// IRQPin is the BCM GPIO wired to PENIRQ. Zero selects the
	// polling sampler instead of the interrupt path.
	IRQPin int

	Cal Calibration

	// Display extents for the raw-to-pixel mapping.
	Width  int
	Height int
}

// Sampler owns the touch transducer and publishes debounced points
// into a Queue.
//
// Two acquisition modes exist. The polling mode runs the full
// denoising pass and is the accurate one. The interrupt mode takes a
// single raw reading per pen-down edge: lower latency, but it skips
// denoising entirely and the occasional point lands a few pixels off.
type Sampler struct {
	cfg   Config
	queue *Queue

	dev *XPT2046
	den *denoiser
	m   mapper

	cancel context.CancelFunc
	done   chan struct{}
	irq    io.Closer

	irqBusy   atomic.Bool
	pressedAt atomic.Int64 // unix nanos
}

func NewSampler(cfg Config, q *Queue) *Sampler {
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 240
	}
	return &Sampler{cfg: cfg, queue: q}
}

func (s *Sampler) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("touch sampler is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.dev != nil {
		return nil
	}

	dev, err := OpenXPT2046(s.cfg.SPIDevice, s.cfg.CSPin, s.cfg.Cal)
	if err != nil {
		return fmt.Errorf("touch open: %w", err)
	}
	s.dev = dev
	s.m = newMapper(s.cfg.Cal, s.cfg.Width, s.cfg.Height)
	s.den = &denoiser{src: dev, m: s.m}

	if s.cfg.IRQPin > 0 {
		irq, err := requestIRQ(s.cfg.IRQPin, s.handlePress, s.handleRelease)
		if err != nil {
			_ = dev.Close()
			s.dev = nil
			return fmt.Errorf("touch irq: %w", err)
		}
		s.irq = irq
		log.Printf("touch: xpt2046 on %s, interrupt mode via GPIO%d", s.cfg.SPIDevice, s.cfg.IRQPin)
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.poll(childCtx, s.done)
	log.Printf("touch: xpt2046 on %s, polling mode", s.cfg.SPIDevice)
	return nil
}

// poll runs the denoising pass back to back. Each pass is bounded by
// the 2 second budget, which also bounds cancellation latency.
func (s *Sampler) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if p, ok := s.den.GetTouch(); ok {
			s.queue.Push(p)
		}
	}
}

// handlePress runs on the GPIO event goroutine. One raw reading, no
// denoising pass.
func (s *Sampler) handlePress(now time.Time) {
	if !s.irqBusy.CompareAndSwap(false, true) {
		return
	}
	s.pressedAt.Store(now.UnixNano())
	x, y, ok := s.dev.RawTouch()
	if ok {
		s.queue.Push(s.m.apply(x, y))
	}
}

func (s *Sampler) handleRelease(now time.Time) {
	if !s.irqBusy.Load() {
		return
	}
	elapsed := now.Sub(time.Unix(0, s.pressedAt.Load()))
	if remain := irqSettle - elapsed; remain > 0 {
		// Unlock later; never sleep on the event goroutine.
		time.AfterFunc(remain, func() { s.irqBusy.Store(false) })
		return
	}
	s.irqBusy.Store(false)
}

func (s *Sampler) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-time.After(3 * time.Second):
			log.Printf("touch: close timed out waiting for sampler exit")
		}
	}
	if s.irq != nil {
		_ = s.irq.Close()
		s.irq = nil
	}
	if s.dev != nil {
		_ = s.dev.Close()
		s.dev = nil
	}
}
