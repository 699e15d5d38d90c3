// Package ringbuf provides a growable double-ended queue backed by a
// circular slice. It is the storage primitive under the audio capture
// engine's chunk queue.
package ringbuf

const minCapacity = 8

// Deque is a generic growable double-ended queue. The zero value is ready
// to use. Deque is not safe for concurrent use; callers serialize access.
//
// Front and PopFront on an empty deque panic. Emptiness is a caller
// precondition, not a runtime condition — check Len first.
type Deque[T any] struct {
	items []T
	head  int
	size  int
}

// New returns a Deque with capacity preallocated for at least n items.
func New[T any](n int) *Deque[T] {
	c := minCapacity
	for c < n {
		c <<= 1
	}
	return &Deque[T]{items: make([]T, c)}
}

// Len returns the number of queued items.
func (d *Deque[T]) Len() int {
	return d.size
}

// PushBack appends v to the tail, growing the backing slice if full.
func (d *Deque[T]) PushBack(v T) {
	if d.size == len(d.items) {
		d.grow()
	}
	d.items[(d.head+d.size)%len(d.items)] = v
	d.size++
}

// Front returns a pointer to the head item without removing it. The
// pointer stays valid until the next PushBack or PopFront; mutating
// through it updates the queued item in place.
func (d *Deque[T]) Front() *T {
	if d.size == 0 {
		panic("ringbuf: Front on empty deque")
	}
	return &d.items[d.head]
}

// PopFront removes and returns the head item.
func (d *Deque[T]) PopFront() T {
	if d.size == 0 {
		panic("ringbuf: PopFront on empty deque")
	}
	var zero T
	v := d.items[d.head]
	d.items[d.head] = zero // release references held by the slot
	d.head = (d.head + 1) % len(d.items)
	d.size--
	return v
}

// Reset discards all queued items. The backing slice is kept, but slots
// are zeroed so queued references can be collected.
func (d *Deque[T]) Reset() {
	var zero T
	for i := 0; i < d.size; i++ {
		d.items[(d.head+i)%len(d.items)] = zero
	}
	d.head = 0
	d.size = 0
}

// grow doubles the backing slice and linearizes the queue into it.
func (d *Deque[T]) grow() {
	c := len(d.items) * 2
	if c == 0 {
		c = minCapacity
	}
	items := make([]T, c)
	for i := 0; i < d.size; i++ {
		items[i] = d.items[(d.head+i)%len(d.items)]
	}
	d.items = items
	d.head = 0
}
