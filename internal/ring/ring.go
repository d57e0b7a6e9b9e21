// Package ring provides a fixed-capacity ring buffer with
// overwrite-oldest semantics. It is not safe for concurrent use;
// callers hold their own lock.
package ring

type Buffer[T any] struct {
	buf   []T
	start int
	n     int
}

func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{buf: make([]T, capacity)}
}

// Push appends v, overwriting the oldest entry when full.
func (b *Buffer[T]) Push(v T) {
	if b.n < len(b.buf) {
		b.buf[(b.start+b.n)%len(b.buf)] = v
		b.n++
		return
	}
	b.buf[b.start] = v
	b.start = (b.start + 1) % len(b.buf)
}

func (b *Buffer[T]) Len() int { return b.n }

func (b *Buffer[T]) Cap() int { return len(b.buf) }

func (b *Buffer[T]) Full() bool { return b.n == len(b.buf) }

func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.buf {
		b.buf[i] = zero
	}
	b.start = 0
	b.n = 0
}

// Oldest returns the least recently pushed entry.
func (b *Buffer[T]) Oldest() (T, bool) {
	if b.n == 0 {
		var zero T
		return zero, false
	}
	return b.buf[b.start], true
}

// Newest returns the most recently pushed entry.
func (b *Buffer[T]) Newest() (T, bool) {
	if b.n == 0 {
		var zero T
		return zero, false
	}
	return b.buf[(b.start+b.n-1)%len(b.buf)], true
}

// Values returns the retained entries in push order, oldest first.
func (b *Buffer[T]) Values() []T {
	out := make([]T, 0, b.n)
	for i := 0; i < b.n; i++ {
		out = append(out, b.buf[(b.start+i)%len(b.buf)])
	}
	return out
}
