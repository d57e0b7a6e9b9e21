package telemetry

import (
	"testing"
	"time"
)

func rec(callsign string, at time.Time) Record {
	return Record{Callsign: callsign, ReceivedAt: at}
}

func TestStore_LatestIsNewest(t *testing.T) {
	st := newStore(4)
	st.add(rec("A", now))
	st.add(rec("B", now.Add(time.Second)))

	got, ok := st.latest()
	if !ok || got.Callsign != "B" {
		t.Fatalf("latest=%+v ok=%v", got, ok)
	}
}

func TestStore_EmptyLatest(t *testing.T) {
	st := newStore(4)
	if _, ok := st.latest(); ok {
		t.Fatalf("expected no record")
	}
}

func TestStore_CollectClearsWholeBufferWhenOldestStale(t *testing.T) {
	st := newStore(4)
	st.add(rec("OLD", now))
	// A fresh record does not save the buffer: eviction is all or
	// nothing once the oldest entry crosses the age limit.
	st.add(rec("FRESH", now.Add(59*time.Minute)))

	if cleared := st.collect(now.Add(50*time.Minute), maxAge); cleared {
		t.Fatalf("cleared too early")
	}
	if st.len() != 2 {
		t.Fatalf("len=%d", st.len())
	}

	if cleared := st.collect(now.Add(60*time.Minute), maxAge); !cleared {
		t.Fatalf("expected clear at exactly max age")
	}
	if st.len() != 0 {
		t.Fatalf("len after clear=%d", st.len())
	}
	if _, ok := st.latest(); ok {
		t.Fatalf("expected no record after clear")
	}
}

func TestStore_CollectOnEmptyBuffer(t *testing.T) {
	st := newStore(4)
	if cleared := st.collect(now, maxAge); cleared {
		t.Fatalf("cleared empty buffer")
	}
}

func TestStore_BoundedCapacity(t *testing.T) {
	st := newStore(2)
	st.add(rec("A", now))
	st.add(rec("B", now.Add(time.Second)))
	st.add(rec("C", now.Add(2*time.Second)))
	if st.len() != 2 {
		t.Fatalf("len=%d", st.len())
	}
	got, _ := st.latest()
	if got.Callsign != "C" {
		t.Fatalf("latest=%q", got.Callsign)
	}
}
