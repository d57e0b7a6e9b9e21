// Package render turns fused frames into pixels. The text layout is
// shared between backends; only the final pixel push differs.
package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/DB8LE/sonde-hunter-pi/internal/fusion"
	"github.com/DB8LE/sonde-hunter-pi/internal/screen"
)

const (
	Width  = 320
	Height = 240
)

// TextFrame is the screen reduced to positioned text blocks. Geo is
// set instead when the frame wants a QR code.
type TextFrame struct {
	// Head is drawn large at the top left.
	Head string
	// Body is drawn in the regular font at (5, BodyY).
	Body  string
	BodyY int

	// Status is the bottom GPS status line; Clock the bottom-right
	// wall time. QRLabel marks the QR button.
	Status  string
	Clock   string
	QRLabel string

	// Geo, when non-empty, replaces Head/Body with a QR code of
	// this URI.
	Geo string
}

// Build lays out one fused frame.
func Build(f fusion.Frame) TextFrame {
	tf := TextFrame{
		BodyY:   5,
		Status:  fmt.Sprintf("%d SVS   %s FIX", f.Fix.Satellites, f.Fix.Quality),
		Clock:   f.Now.Local().Format("15:04"),
		QRLabel: "QR",
	}

	switch f.Screen {
	case screen.KindQR:
		if f.QR == nil {
			tf.Head = "No sonde data yet"
		} else {
			tf.Geo = GeoURI(f.QR.Lat, f.QR.Lon)
		}

	case screen.KindTracking:
		buildTracking(&tf, f)

	default:
		tf.Head = "Not tracking\nany sondes\nright now!"
	}

	return tf
}

func buildTracking(tf *TextFrame, f fusion.Frame) {
	rec := f.Record
	d := f.Derived

	if d.Far {
		tf.Head = fmt.Sprintf("%s %s",
			LatString(rec.Lat, 4), LonString(rec.Lon, 4))
		tf.Body = fmt.Sprintf("height: %.1fkm dist: %.1fkm\n%s   %sMHz %sdB",
			math.Round(rec.Alt)/1000, d.DistanceM/1000,
			AgeString(d.AgeS), FreqString(rec.FreqMHz), trimFloat(rec.SNR))
		tf.BodyY = 42
		return
	}

	// The relative overlay needs a trustworthy own position.
	if f.Reliable {
		tf.Head = fmt.Sprintf("%d° %dm h%s", int(math.Round(d.BearingDeg)),
			int(math.Round(d.DistanceM)), heightString(d))
		// Shift the sonde data down to make room for the overlay.
		tf.BodyY = 5 + 37
	}

	tf.Body = fmt.Sprintf("%s %s %dm\n%s   %sMHz %sdB",
		LatString(rec.Lat, 5), LonString(rec.Lon, 5), int(math.Round(rec.Alt)),
		AgeString(d.AgeS), FreqString(rec.FreqMHz), trimFloat(rec.SNR))
}

// LatString renders a latitude with a hemisphere suffix, e.g.
// "48.13730N".
func LatString(lat float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(lat), 'f', decimals, 64)
	if lat < 0 {
		return s + "S"
	}
	return s + "N"
}

func LonString(lon float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(lon), 'f', decimals, 64)
	if lon < 0 {
		return s + "W"
	}
	return s + "E"
}

// AgeString keeps the age readout within its fixed display width:
// past 999 seconds it just says old.
func AgeString(ageS float64) string {
	if ageS > 999 {
		return "old     "
	}
	return strconv.Itoa(int(math.Round(ageS))) + "s ago"
}

// FreqString renders MHz with up to two decimals, trailing zeros
// trimmed ("404.3", not "404.30").
func FreqString(mhz float64) string {
	return trimFloat(math.Round(mhz*100) / 100)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// heightString renders the height difference, "-" when the fix has no
// altitude to compare against.
func heightString(d *fusion.Derived) string {
	if !d.HeightKnown {
		return "-m"
	}
	hd := int(math.Round(d.HeightDiffM))
	if hd >= 0 {
		return fmt.Sprintf("+%dm", hd)
	}
	return fmt.Sprintf("%dm", hd)
}

// GeoURI encodes a position as a geo: URI, the form phone camera apps
// open directly in a maps application.
func GeoURI(lat, lon float64) string {
	return fmt.Sprintf("geo:%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}
