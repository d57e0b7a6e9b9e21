package fusion

import (
	"context"
	"log"
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/gps"
	"github.com/DB8LE/sonde-hunter-pi/internal/ring"
	"github.com/DB8LE/sonde-hunter-pi/internal/screen"
	"github.com/DB8LE/sonde-hunter-pi/internal/telemetry"
	"github.com/DB8LE/sonde-hunter-pi/internal/touch"
)

// reliabilityWindow is how many recent fix-quality observations feed
// the GPS trust judgment.
const reliabilityWindow = 10

// Frame is the fused, render-ready view of one tick.
type Frame struct {
	Now    time.Time
	Screen screen.Kind

	Fix      gps.Fix
	Reliable bool

	// Record and Derived are nil when no sonde is tracked.
	Record  *telemetry.Record
	Derived *Derived

	// QR is set when Screen is KindQR and a position is known.
	QR *screen.SondePosition
}

// Renderer is the pixel-output collaborator.
type Renderer interface {
	Draw(Frame) error
}

type positionSource interface {
	Latest() gps.Fix
}

type telemetrySource interface {
	Latest() (telemetry.Record, bool)
}

type touchSource interface {
	Pop() (touch.Point, bool)
	Clear()
}

// Loop is the single-threaded consumer. Producers publish into their
// own containers; the loop reads snapshots each tick and never blocks
// on any of them.
type Loop struct {
	tick time.Duration

	pos      positionSource
	tel      telemetrySource
	touch    touchSource
	machine  *screen.Machine
	renderer Renderer

	window *ring.Buffer[gps.Quality]
}

func NewLoop(tick time.Duration, pos positionSource, tel telemetrySource, tq touchSource, r Renderer) *Loop {
	if tick <= 0 {
		tick = 1 * time.Second
	}
	return &Loop{
		tick:     tick,
		pos:      pos,
		tel:      tel,
		touch:    tq,
		machine:  screen.NewMachine(),
		renderer: r,
		window:   ring.New[gps.Quality](reliabilityWindow),
	}
}

// Run ticks until the context is canceled. A QR activation suspends
// ticking for the screen's cooldown; touch input arriving during the
// pause is discarded wholesale.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sleepFor := l.Tick(time.Now().UTC())
			if sleepFor > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(sleepFor):
				}
				l.touch.Clear()
			}
		}
	}
}

// Tick runs one fusion pass and returns the cooldown the screen
// machine requested, if any.
func (l *Loop) Tick(now time.Time) time.Duration {
	fix := l.pos.Latest()
	l.window.Push(fix.Quality)
	reliable := l.reliable()

	var recPtr *telemetry.Record
	var derived *Derived
	if rec, ok := l.tel.Latest(); ok {
		recPtr = &rec
		dv := Derive(now, fix, rec)
		derived = &dv
	}

	// One touch point per tick; anything else queued is dropped.
	var ptPtr *touch.Point
	if p, ok := l.touch.Pop(); ok {
		ptPtr = &p
	}

	res := l.machine.Advance(recPtr, ptPtr)

	frame := Frame{
		Now:      now,
		Screen:   res.Kind,
		Fix:      fix,
		Reliable: reliable,
		Record:   recPtr,
		Derived:  derived,
		QR:       res.QR,
	}
	if err := l.renderer.Draw(frame); err != nil {
		log.Printf("fusion: draw failed: %v", err)
	}

	return res.SleepFor
}

// reliable reports whether none of the recent fix-quality
// observations was a no-fix.
func (l *Loop) reliable() bool {
	for _, q := range l.window.Values() {
		if q == gps.QualityNone {
			return false
		}
	}
	return true
}
