package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	// Addr is host:port of gpsd. Empty means 127.0.0.1:2947.
	Addr string

	// DialTimeout is used for the initial TCP connect.
	DialTimeout time.Duration
}

// Service streams gpsd reports in the background and publishes the
// merged fix for non-blocking reads.
//
// The stream does not reconnect: a transport failure terminates it and
// restarting is the caller's responsibility.
type Service struct {
	cfg Config

	mu     sync.Mutex
	cancel context.CancelFunc
	closer io.Closer
	done   chan struct{}

	last    atomic.Value // Fix
	gotData atomic.Bool
	lastErr atomic.Value // string
}

func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	s.last.Store(Fix{})
	return s
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(childCtx, s.done)
	return nil
}

func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" {
		addr = gpsdDefaultAddr
	}

	conn, err := dialGPSD(ctx, addr, s.cfg.DialTimeout)
	if err != nil {
		s.setError(fmt.Sprintf("gpsd dial failed addr=%s: %v", addr, err))
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	// Keep the connection so Close() can interrupt a blocked read.
	s.closer = conn
	s.mu.Unlock()

	if err := gpsdWatch(conn); err != nil {
		s.setError(fmt.Sprintf("gpsd watch failed: %v", err))
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)

	// gpsd greets with a VERSION document. Not getting one is worth a
	// warning but the stream is still usable.
	release := "?"
	if scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rel, verr := parseVersion(line); verr != nil {
			log.Printf("gps: could not read gpsd version banner: %v", verr)
		} else {
			release = rel
		}
	} else {
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		s.setError(fmt.Sprintf("gpsd read stopped before banner: %v", err))
		return
	}

	log.Printf("gps: listening to gpsd v%s at %s", release, addr)

	var st gpsdState
	// Publish the all-zero placeholder so Latest() has a defined shape
	// before the first report lands.
	s.last.Store(st.snapshot())
	s.gotData.Store(true)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !scanner.Scan() {
			err := scanner.Err()
			if err == nil {
				err = io.EOF
			}
			s.setError(fmt.Sprintf("gpsd read stopped: %v", err))
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		updated, perr := st.applyLine(line)
		if perr != nil {
			// Skip the document, keep the current fix.
			log.Printf("gps: %v", perr)
			continue
		}
		if updated {
			s.last.Store(st.snapshot())
		}
	}
}

// Latest returns the most recent merged fix. It never blocks; before
// the first report it returns the zero placeholder.
func (s *Service) Latest() Fix {
	if s == nil {
		return Fix{}
	}
	v := s.last.Load()
	if v == nil {
		return Fix{}
	}
	return v.(Fix)
}

// Ready reports whether the stream has connected and produced data.
func (s *Service) Ready() bool {
	return s != nil && s.gotData.Load()
}

// LastError returns the message recorded when the stream terminated.
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

// Close stops the stream and waits up to 3 seconds for it to exit.
// It never hangs: a stuck stream is abandoned.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	done := s.done
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			log.Printf("gps: close timed out waiting for stream exit")
		}
	}
}

func (s *Service) setError(msg string) {
	s.lastErr.Store(msg)
	log.Printf("gps: %s", msg)
}
