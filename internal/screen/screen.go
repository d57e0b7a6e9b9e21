// Package screen selects which screen the display shows each tick and
// turns touch points into button activations.
package screen

import (
	"math"
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/telemetry"
	"github.com/DB8LE/sonde-hunter-pi/internal/touch"
)

type Kind int

const (
	// KindIdle: no sonde currently tracked.
	KindIdle Kind = iota
	// KindTracking: telemetry present, show the hunt readout.
	KindTracking
	// KindQR: transient geolocation QR screen, entered via touch.
	KindQR
)

// Action identifies what a touch region triggers.
type Action int

const (
	ActionNone Action = iota
	ActionShowQR
)

// Region is a touch button defined by a near corner (SX, SY) and a
// far corner (EX, EY).
type Region struct {
	SX, SY int
	EX, EY int
	Action Action
}

// Hit reports whether p activates the region. The corner convention
// is near >= far on both axes; keep the comparison order as is, the
// region table is written against it.
func (r Region) Hit(p touch.Point) bool {
	return p.X <= r.SX && p.Y <= r.SY && p.X >= r.EX && p.Y >= r.EY
}

// SondePosition is the last known sonde location, retained across
// ticks for the QR screen even after telemetry goes stale.
type SondePosition struct {
	Lat        float64
	Lon        float64
	ObservedAt time.Time
}

// Result is one screen decision. A nonzero SleepFor tells the caller
// to suspend ticking for exactly that long after drawing; touch input
// arriving during the pause is discarded, which keeps an accidental
// double-tap from re-triggering the transient screen.
type Result struct {
	Kind     Kind
	SleepFor time.Duration
	// QR is set when Kind is KindQR and a position is known;
	// nil means "no sonde data yet".
	QR *SondePosition
}

// Machine drives the Idle/Tracking/QR screen selection.
type Machine struct {
	regions   []Region
	lastKnown *SondePosition
}

func NewMachine() *Machine {
	return &Machine{
		regions: []Region{
			// The QR button in the bottom status row.
			{SX: 100, SY: 30, EX: 70, EY: 5, Action: ActionShowQR},
		},
	}
}

// Advance consumes this tick's inputs and picks a screen. At most one
// touch point is considered per tick; callers drop the rest.
func (m *Machine) Advance(rec *telemetry.Record, pt *touch.Point) Result {
	if rec != nil {
		m.lastKnown = &SondePosition{
			Lat:        round5(rec.Lat),
			Lon:        round5(rec.Lon),
			ObservedAt: rec.ReceivedAt,
		}
	}

	if pt != nil {
		for _, r := range m.regions {
			if r.Hit(*pt) && r.Action == ActionShowQR {
				return m.showQR()
			}
		}
	}

	if rec == nil {
		return Result{Kind: KindIdle}
	}
	return Result{Kind: KindTracking}
}

func (m *Machine) showQR() Result {
	if m.lastKnown == nil {
		// Nothing to encode; show the placeholder briefly.
		return Result{Kind: KindQR, SleepFor: 3 * time.Second}
	}
	qr := *m.lastKnown
	return Result{Kind: KindQR, SleepFor: 5 * time.Second, QR: &qr}
}

// LastKnown returns the retained sonde position, if any.
func (m *Machine) LastKnown() (SondePosition, bool) {
	if m.lastKnown == nil {
		return SondePosition{}, false
	}
	return *m.lastKnown, true
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
