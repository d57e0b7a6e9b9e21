package gps

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// dialGPSD connects to gpsd over TCP.
func dialGPSD(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := &net.Dialer{Timeout: timeout}
	if ctx == nil {
		return d.Dial("tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// gpsdWatch enables JSON streaming reports.
func gpsdWatch(conn net.Conn) error {
	_, err := conn.Write([]byte("?WATCH={\"enable\": true, \"json\": true}\n"))
	return err
}

type gpsdMsgBase struct {
	Class string `json:"class"`
}

type gpsdVersion struct {
	Class   string `json:"class"`
	Release string `json:"release"`
}

type gpsdTPV struct {
	Class string   `json:"class"`
	Mode  *int     `json:"mode"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Alt   *float64 `json:"alt"`
}

type gpsdSat struct {
	Used bool `json:"used"`
}

type gpsdSKY struct {
	Class      string     `json:"class"`
	Satellites *[]gpsdSat `json:"satellites"`
}

// parseVersion checks the gpsd greeting. gpsd sends a VERSION document
// first on every connection; its absence is suspicious but harmless.
func parseVersion(line string) (string, error) {
	var v gpsdVersion
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		return "", fmt.Errorf("gpsd version parse failed: %v", err)
	}
	if strings.ToUpper(strings.TrimSpace(v.Class)) != "VERSION" {
		return "", fmt.Errorf("first gpsd message was class %q, not VERSION", v.Class)
	}
	return v.Release, nil
}

// gpsdState accumulates the merged fix. Reports update only the fields
// they carry; everything else keeps its previous value.
type gpsdState struct {
	fix Fix
}

func (s *gpsdState) snapshot() Fix {
	return s.fix
}

// applyLine merges one gpsd JSON document into the fix. It returns
// whether the fix changed. A document missing a field its fix mode
// requires is rejected as a whole: the existing fix stays untouched.
func (s *gpsdState) applyLine(line string) (bool, error) {
	var base gpsdMsgBase
	if err := json.Unmarshal([]byte(line), &base); err != nil {
		return false, fmt.Errorf("gpsd json parse failed: %v", err)
	}

	switch strings.ToUpper(strings.TrimSpace(base.Class)) {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal([]byte(line), &tpv); err != nil {
			return false, fmt.Errorf("gpsd tpv parse failed: %v", err)
		}
		return s.applyTPV(tpv)
	case "SKY":
		var sky gpsdSKY
		if err := json.Unmarshal([]byte(line), &sky); err != nil {
			return false, fmt.Errorf("gpsd sky parse failed: %v", err)
		}
		return s.applySKY(sky), nil
	default:
		// Ignore other gpsd messages (e.g. DEVICES/WATCH).
		return false, nil
	}
}

func (s *gpsdState) applyTPV(tpv gpsdTPV) (bool, error) {
	if tpv.Mode == nil {
		return false, fmt.Errorf("gpsd tpv missing mode")
	}

	mode := *tpv.Mode
	if mode <= 1 {
		s.fix.Quality = QualityNone
		return true, nil
	}

	// 2D and 3D fixes must carry a position.
	if tpv.Lat == nil || tpv.Lon == nil {
		return false, fmt.Errorf("gpsd tpv mode=%d missing lat/lon", mode)
	}
	if mode >= 3 && tpv.Alt == nil {
		return false, fmt.Errorf("gpsd tpv mode=%d missing alt", mode)
	}

	s.fix.Lat = *tpv.Lat
	s.fix.Lon = *tpv.Lon
	if mode >= 3 {
		s.fix.Alt = *tpv.Alt
		s.fix.Quality = Quality3D
	} else {
		s.fix.Quality = Quality2D
	}
	return true, nil
}

func (s *gpsdState) applySKY(sky gpsdSKY) bool {
	// SKY without a satellite list carries nothing we use.
	if sky.Satellites == nil {
		return false
	}
	used := 0
	for _, sat := range *sky.Satellites {
		if sat.Used {
			used++
		}
	}
	s.fix.Satellites = used
	return true
}
