package fusion

import (
	"testing"
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/gps"
	"github.com/DB8LE/sonde-hunter-pi/internal/screen"
	"github.com/DB8LE/sonde-hunter-pi/internal/telemetry"
	"github.com/DB8LE/sonde-hunter-pi/internal/touch"
)

type fakePos struct{ fix gps.Fix }

func (f *fakePos) Latest() gps.Fix { return f.fix }

type fakeTel struct {
	rec telemetry.Record
}

func (f *fakeTel) Latest() (telemetry.Record, bool) {
	if f.rec.Callsign == "" {
		return telemetry.Record{}, false
	}
	return f.rec, true
}

type fakeTouch struct{ pts []touch.Point }

func (f *fakeTouch) Pop() (touch.Point, bool) {
	if len(f.pts) == 0 {
		return touch.Point{}, false
	}
	p := f.pts[0]
	f.pts = nil
	return p, true
}

func (f *fakeTouch) Clear() { f.pts = nil }

type captureRenderer struct{ frames []Frame }

func (c *captureRenderer) Draw(fr Frame) error {
	c.frames = append(c.frames, fr)
	return nil
}

func newTestLoop() (*Loop, *fakePos, *fakeTel, *fakeTouch, *captureRenderer) {
	pos := &fakePos{fix: gps.Fix{Quality: gps.Quality3D, Lat: 48.0, Lon: 11.0, Alt: 500}}
	tel := &fakeTel{}
	tq := &fakeTouch{}
	r := &captureRenderer{}
	return NewLoop(time.Second, pos, tel, tq, r), pos, tel, tq, r
}

func TestLoop_IdleWithoutTelemetry(t *testing.T) {
	l, _, _, _, r := newTestLoop()
	if sleep := l.Tick(now); sleep != 0 {
		t.Fatalf("sleep=%v", sleep)
	}
	if len(r.frames) != 1 {
		t.Fatalf("frames=%d", len(r.frames))
	}
	fr := r.frames[0]
	if fr.Screen != screen.KindIdle || fr.Record != nil || fr.Derived != nil {
		t.Fatalf("frame=%+v", fr)
	}
}

func TestLoop_TrackingWithTelemetry(t *testing.T) {
	l, _, tel, _, r := newTestLoop()
	tel.rec = telemetry.Record{
		Callsign:   "T1234567",
		Lat:        48.1,
		Lon:        11.1,
		Alt:        8000,
		ReceivedAt: now.Add(-5 * time.Second),
	}

	l.Tick(now)
	fr := r.frames[0]
	if fr.Screen != screen.KindTracking {
		t.Fatalf("screen=%v", fr.Screen)
	}
	if fr.Record == nil || fr.Derived == nil {
		t.Fatalf("frame missing telemetry: %+v", fr)
	}
	if fr.Derived.AgeS < 4.9 || fr.Derived.AgeS > 5.1 {
		t.Fatalf("age=%v", fr.Derived.AgeS)
	}
	if !fr.Derived.HeightKnown {
		t.Fatalf("expected height diff with 3D fix")
	}
}

func TestLoop_ReliabilityWindow(t *testing.T) {
	l, pos, _, _, _ := newTestLoop()

	for i := 0; i < reliabilityWindow; i++ {
		l.Tick(now)
	}
	if !l.reliable() {
		t.Fatalf("expected reliable with all-3D window")
	}

	// A single no-fix poisons the window...
	pos.fix.Quality = gps.QualityNone
	l.Tick(now)
	if l.reliable() {
		t.Fatalf("expected unreliable after a no-fix")
	}

	// ...until it ages out of the last 10 observations.
	pos.fix.Quality = gps.Quality3D
	for i := 0; i < reliabilityWindow-1; i++ {
		l.Tick(now)
		if l.reliable() {
			t.Fatalf("no-fix aged out too early (tick %d)", i)
		}
	}
	l.Tick(now)
	if !l.reliable() {
		t.Fatalf("expected reliable after window refilled")
	}
}

func TestLoop_TouchEntersQRAndRequestsCooldown(t *testing.T) {
	l, _, tel, tq, r := newTestLoop()
	tel.rec = telemetry.Record{Callsign: "T1", Lat: 48.1, Lon: 11.1, ReceivedAt: now}
	l.Tick(now) // seed last known position

	tq.pts = []touch.Point{{X: 85, Y: 15}}
	sleep := l.Tick(now)
	if sleep != 5*time.Second {
		t.Fatalf("sleep=%v", sleep)
	}
	fr := r.frames[len(r.frames)-1]
	if fr.Screen != screen.KindQR || fr.QR == nil {
		t.Fatalf("frame=%+v", fr)
	}
}

func TestLoop_TouchOutsideRegionsIsIgnored(t *testing.T) {
	l, _, _, tq, r := newTestLoop()
	tq.pts = []touch.Point{{X: 300, Y: 200}}
	if sleep := l.Tick(now); sleep != 0 {
		t.Fatalf("sleep=%v", sleep)
	}
	if r.frames[0].Screen != screen.KindIdle {
		t.Fatalf("screen=%v", r.frames[0].Screen)
	}
}
