// Package fusion runs the single consumer loop that merges the
// producer streams into a render-ready view once per tick.
package fusion

import (
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/geo"
	"github.com/DB8LE/sonde-hunter-pi/internal/gps"
	"github.com/DB8LE/sonde-hunter-pi/internal/telemetry"
)

// Past four digits of meters the layout switches to km scale.
const farThreshold = 9999.0

// Derived holds the per-tick quantities computed from the current fix
// and the newest telemetry record. Nothing here outlives the tick.
type Derived struct {
	DistanceM  float64
	BearingDeg float64

	// Far selects the compacted km-scaled layout.
	Far bool

	// HeightDiffM is sonde altitude minus fix altitude; only known
	// with a 3D fix.
	HeightDiffM float64
	HeightKnown bool

	// AgeS is seconds since the record was received.
	AgeS float64
}

// Derive computes the tick's quantities. Pure function of its inputs.
func Derive(now time.Time, fix gps.Fix, rec telemetry.Record) Derived {
	d := Derived{
		DistanceM:  geo.DistanceM(fix.Lat, fix.Lon, rec.Lat, rec.Lon),
		BearingDeg: geo.BearingDeg(fix.Lat, fix.Lon, rec.Lat, rec.Lon),
		AgeS:       now.Sub(rec.ReceivedAt).Seconds(),
	}
	d.Far = d.DistanceM > farThreshold || rec.Alt > farThreshold
	if fix.Quality == gps.Quality3D {
		d.HeightDiffM = rec.Alt - fix.Alt
		d.HeightKnown = true
	}
	return d
}
