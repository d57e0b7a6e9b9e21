package telemetry

import (
	"sync"
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/ring"
)

// store holds the recent-history buffer. Eviction is deliberately
// coarse: once the oldest retained record crosses maxAge the whole
// buffer is cleared, because sonde data that old is worthless en masse.
type store struct {
	mu  sync.Mutex
	buf *ring.Buffer[Record]
}

func newStore(capacity int) *store {
	return &store{buf: ring.New[Record](capacity)}
}

func (st *store) add(rec Record) {
	st.mu.Lock()
	st.buf.Push(rec)
	st.mu.Unlock()
}

func (st *store) latest() (Record, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.buf.Newest()
}

func (st *store) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.buf.Len()
}

// collect clears the buffer when its oldest record's age has reached
// maxAge. It reports whether a clear happened.
func (st *store) collect(now time.Time, maxAge time.Duration) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	oldest, ok := st.buf.Oldest()
	if !ok {
		return false
	}
	if now.Sub(oldest.ReceivedAt) < maxAge {
		return false
	}
	st.buf.Clear()
	return true
}
