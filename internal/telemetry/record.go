// Package telemetry listens for radiosonde payload summaries
// broadcast over UDP by auto_rx and keeps a short history of decoded
// records.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// summaryType is the only datagram type we consume. Everything else on
// the port is ignored so future auto_rx message types cannot break the
// listener.
const summaryType = "PAYLOAD_SUMMARY"

// Record is one decoded payload summary, timestamped at receipt.
// Records are immutable once created.
type Record struct {
	Callsign   string
	Lat        float64
	Lon        float64
	Alt        float64
	FreqMHz    float64
	SNR        float64
	ReceivedAt time.Time
}

type payloadSummary struct {
	Type     string   `json:"type"`
	Callsign *string  `json:"callsign"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Alt      *float64 `json:"alt"`
	Freq     string   `json:"freq"`
	SNR      float64  `json:"snr"`
}

// decodeSummary decodes one datagram. ok=false with a nil error means
// the datagram was a recognized shape but not a payload summary.
func decodeSummary(b []byte, now time.Time) (Record, bool, error) {
	var ps payloadSummary
	if err := json.Unmarshal(b, &ps); err != nil {
		return Record{}, false, fmt.Errorf("summary parse failed: %v", err)
	}
	if ps.Type != summaryType {
		return Record{}, false, nil
	}
	if ps.Callsign == nil || ps.Lat == nil || ps.Lon == nil || ps.Alt == nil {
		return Record{}, false, fmt.Errorf("summary missing required fields")
	}

	return Record{
		Callsign:   *ps.Callsign,
		Lat:        *ps.Lat,
		Lon:        *ps.Lon,
		Alt:        *ps.Alt,
		FreqMHz:    parseFreqMHz(ps.Freq),
		SNR:        ps.SNR,
		ReceivedAt: now,
	}, true, nil
}

// parseFreqMHz parses auto_rx's "404.300 MHz" style frequency string.
// An unparseable frequency degrades to 0 rather than rejecting the
// whole record.
func parseFreqMHz(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "MHz"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
