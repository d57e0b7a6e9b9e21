package touch

import "testing"

func TestMapper_AffineTransform(t *testing.T) {
	cal := Calibration{MinX: 100, MaxX: 1962, MinY: 100, MaxY: 1900}
	m := newMapper(cal, 320, 240)

	// The calibration minimum maps to the origin, the maximum to the
	// far screen edge.
	if p := m.apply(100, 100); p.X != 0 || p.Y != 0 {
		t.Fatalf("min corner=%+v", p)
	}
	if p := m.apply(1962, 1900); p.X != 320 || p.Y != 240 {
		t.Fatalf("max corner=%+v", p)
	}

	// Midpoint lands near the screen center.
	p := m.apply((100+1962)/2, (100+1900)/2)
	if abs(p.X-160) > 1 || abs(p.Y-120) > 1 {
		t.Fatalf("midpoint=%+v", p)
	}
}

func TestCalibration_Contains(t *testing.T) {
	cal := Calibration{MinX: 100, MaxX: 1962, MinY: 100, MaxY: 1900}
	cases := []struct {
		x, y int
		want bool
	}{
		{100, 100, true},
		{1962, 1900, true},
		{1000, 1000, true},
		{99, 1000, false},
		{1963, 1000, false},
		{1000, 99, false},
		{1000, 1901, false},
	}
	for _, c := range cases {
		if got := cal.contains(c.x, c.y); got != c.want {
			t.Fatalf("contains(%d,%d)=%v want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestQueue_OverwritesPending(t *testing.T) {
	q := NewQueue()
	q.Push(Point{X: 1, Y: 1})
	q.Push(Point{X: 2, Y: 2})

	p, ok := q.Pop()
	if !ok || p.X != 2 {
		t.Fatalf("pop=%+v ok=%v", p, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty after pop")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Push(Point{X: 5, Y: 5})
	q.Clear()
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty after clear")
	}
}
