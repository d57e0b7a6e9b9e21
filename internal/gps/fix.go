// Package gps maintains the latest GPS fix by streaming JSON reports
// from a gpsd instance over TCP.
//
// gpsd sends position (TPV) and satellite (SKY) reports as separate
// documents, so the fix is refined field by field rather than replaced
// wholesale: a report only touches the fields it carries.
package gps

// Quality is the fix quality tier reported by gpsd's TPV mode field.
type Quality int

const (
	QualityNone Quality = iota
	Quality2D
	Quality3D
)

func (q Quality) String() string {
	switch q {
	case Quality2D:
		return "2D"
	case Quality3D:
		return "3D"
	default:
		return "NO"
	}
}

// Fix is a snapshot of the merged GPS state. Altitude is only
// meaningful when Quality is Quality3D.
type Fix struct {
	Lat        float64
	Lon        float64
	Alt        float64
	Quality    Quality
	Satellites int
}
