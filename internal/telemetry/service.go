package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync/atomic"
	"time"
)

const (
	// maxAge is how long sonde data stays useful. The periodic
	// housekeeping pass clears the whole buffer once the oldest
	// record reaches this age.
	maxAge = 60 * time.Minute

	// collectEvery counts receive cycles (packets or timeouts)
	// between housekeeping passes; with the 1s read deadline this is
	// roughly every 10 seconds.
	collectEvery = 10

	// bufferCap bounds the recent-history buffer.
	bufferCap = 32

	readDeadline = 1 * time.Second
	maxDatagram  = 1024
)

type Config struct {
	// Listen is the UDP listen address, e.g. ":55672".
	Listen string
}

// Service listens for auto_rx payload summaries on UDP. Datagrams come
// from a third-party process, so every decode failure is logged and
// skipped; only a socket-level failure terminates the listener.
type Service struct {
	cfg Config

	st *store

	conn    net.PacketConn
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool

	lastErr atomic.Value // string
}

func New(cfg Config) *Service {
	return &Service{cfg: cfg, st: newStore(bufferCap)}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("telemetry service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.started.Swap(true) {
		return nil
	}

	listen := s.cfg.Listen
	if listen == "" {
		listen = ":55672"
	}

	// Reuse options let this listener share the summary port with
	// other consumers (e.g. chasemapper) on the same host.
	lc := net.ListenConfig{Control: reusePort}
	conn, err := lc.ListenPacket(ctx, "udp", listen)
	if err != nil {
		return fmt.Errorf("telemetry listen %s: %w", listen, err)
	}
	s.conn = conn

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	log.Printf("telemetry: listening for payload summaries on %s", conn.LocalAddr())
	go s.run(childCtx, conn, s.done)
	return nil
}

func (s *Service) run(ctx context.Context, conn net.PacketConn, done chan struct{}) {
	defer close(done)
	defer func() { _ = conn.Close() }()

	buf := make([]byte, maxDatagram)
	cycles := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// The short deadline doubles as the cancellation poll
		// interval; it is not a retry mechanism.
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, _, err := conn.ReadFrom(buf)
		switch {
		case err == nil:
			s.ingest(buf[:n])
		case errors.Is(err, os.ErrDeadlineExceeded):
			// No packet this cycle.
		default:
			if ctx.Err() != nil {
				return
			}
			s.setError(fmt.Sprintf("read failed: %v", err))
			return
		}

		cycles++
		if cycles >= collectEvery {
			cycles = 0
			if s.st.collect(time.Now().UTC(), maxAge) {
				log.Printf("telemetry: discarding sonde data older than %s", maxAge)
			}
		}
	}
}

func (s *Service) ingest(b []byte) {
	rec, ok, err := decodeSummary(b, time.Now().UTC())
	if err != nil {
		log.Printf("telemetry: %v", err)
		return
	}
	if !ok {
		// Unrecognized message type; not ours to care about.
		return
	}
	s.st.add(rec)
}

// Latest returns the newest record, or ok=false when nothing is being
// tracked (empty or just garbage-collected buffer). It never blocks.
func (s *Service) Latest() (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	return s.st.latest()
}

func (s *Service) LastError() string {
	if s == nil {
		return ""
	}
	v := s.lastErr.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

// Close stops the listener and waits up to 3 seconds for it to exit.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-time.After(3 * time.Second):
			log.Printf("telemetry: close timed out waiting for listener exit")
		}
	}
}

func (s *Service) setError(msg string) {
	s.lastErr.Store(msg)
	log.Printf("telemetry: %s", msg)
}
