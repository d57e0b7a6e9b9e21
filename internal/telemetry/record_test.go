package telemetry

import (
	"math"
	"testing"
	"time"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func TestDecodeSummary_Accepts(t *testing.T) {
	b := []byte(`{"type":"PAYLOAD_SUMMARY","callsign":"T1234567","lat":48.2,"lon":11.6,"alt":23000.5,"freq":"404.300 MHz","snr":12.5}`)
	rec, ok, err := decodeSummary(b, now)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok")
	}
	if rec.Callsign != "T1234567" {
		t.Fatalf("callsign=%q", rec.Callsign)
	}
	if math.Abs(rec.Lat-48.2) > 1e-9 || math.Abs(rec.Lon-11.6) > 1e-9 || math.Abs(rec.Alt-23000.5) > 1e-9 {
		t.Fatalf("position=%v %v %v", rec.Lat, rec.Lon, rec.Alt)
	}
	if math.Abs(rec.FreqMHz-404.3) > 1e-9 {
		t.Fatalf("freq=%v", rec.FreqMHz)
	}
	if math.Abs(rec.SNR-12.5) > 1e-9 {
		t.Fatalf("snr=%v", rec.SNR)
	}
	if !rec.ReceivedAt.Equal(now) {
		t.Fatalf("received_at=%v", rec.ReceivedAt)
	}
}

func TestDecodeSummary_IgnoresOtherTypes(t *testing.T) {
	b := []byte(`{"type":"MODEM_STATS","snr":3.0}`)
	_, ok, err := decodeSummary(b, now)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if ok {
		t.Fatalf("expected not ok for foreign type")
	}
}

func TestDecodeSummary_RejectsBadInput(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"type":"PAYLOAD_SUMMARY","callsign":"X"}`),
		[]byte(`{"type":"PAYLOAD_SUMMARY","lat":1.0,"lon":2.0,"alt":3.0}`),
	}
	for _, b := range cases {
		if _, _, err := decodeSummary(b, now); err == nil {
			t.Fatalf("expected error for %s", b)
		}
	}
}

func TestParseFreqMHz(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"404.300 MHz", 404.3},
		{"402.010MHz", 402.01},
		{" 405.1 MHz ", 405.1},
		{"garbage", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := parseFreqMHz(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("parseFreqMHz(%q)=%v want %v", c.in, got, c.want)
		}
	}
}
