// Package touch turns a noisy resistive touch transducer into single
// debounced screen-coordinate points.
package touch

import (
	"sync"

	"github.com/DB8LE/sonde-hunter-pi/internal/ring"
)

// Point is a touch location in display pixel coordinates,
// post-calibration.
type Point struct {
	X int
	Y int
}

// Calibration holds the raw ADC extents of the panel. Readings outside
// these bounds are no-touch noise.
type Calibration struct {
	MinX, MaxX int
	MinY, MaxY int
}

func (c Calibration) contains(x, y int) bool {
	return x >= c.MinX && x <= c.MaxX && y >= c.MinY && y <= c.MaxY
}

// mapper is the per-axis affine transform from raw ADC space to
// screen pixels: screen = raw*mul + add.
type mapper struct {
	xMul, xAdd float64
	yMul, yAdd float64
}

func newMapper(c Calibration, width, height int) mapper {
	xMul := float64(width) / float64(c.MaxX-c.MinX)
	yMul := float64(height) / float64(c.MaxY-c.MinY)
	return mapper{
		xMul: xMul,
		xAdd: float64(-c.MinX) * xMul,
		yMul: yMul,
		yAdd: float64(-c.MinY) * yMul,
	}
}

func (m mapper) apply(x, y int) Point {
	return Point{
		X: int(m.xMul*float64(x) + m.xAdd),
		Y: int(m.yMul*float64(y) + m.yAdd),
	}
}

// Queue hands points from the sampler to the consumer. It holds a
// single pending point; a newer touch overwrites an unconsumed one.
// Reads never block.
type Queue struct {
	mu  sync.Mutex
	buf *ring.Buffer[Point]
}

func NewQueue() *Queue {
	return &Queue{buf: ring.New[Point](1)}
}

func (q *Queue) Push(p Point) {
	q.mu.Lock()
	q.buf.Push(p)
	q.mu.Unlock()
}

// Pop returns the pending point, if any, and drops everything else.
func (q *Queue) Pop() (Point, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.buf.Newest()
	q.buf.Clear()
	return p, ok
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.buf.Clear()
	q.mu.Unlock()
}
