package hostaudio

import "sync"

// Feed is a raw-audio subscription hub: producers publish batches,
// subscribers receive every batch published after they attach.
// Delivery is synchronous on the publisher's goroutine, matching the
// host's capture-thread callback semantics.
type Feed[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

// NewFeed returns an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a cancel func that detaches it.
// Cancel is idempotent.
func (f *Feed[T]) Subscribe(fn func(T)) (cancel func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers batch to every current subscriber.
func (f *Feed[T]) Publish(batch T) {
	f.mu.Lock()
	fns := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(batch)
	}
}

// MasterFeed fans the host's final mix out per mix-bus index.
type MasterFeed struct {
	tracks [MaxMixes]*Feed[SourceFrames]
}

// NewMasterFeed returns a feed hub with one track feed per mix bus.
func NewMasterFeed() *MasterFeed {
	m := &MasterFeed{}
	for i := range m.tracks {
		m.tracks[i] = NewFeed[SourceFrames]()
	}
	return m
}

// Track returns the feed for one mix-bus index. Panics if track is out
// of range; track validity is a caller precondition.
func (m *MasterFeed) Track(track int) *Feed[SourceFrames] {
	return m.tracks[track]
}

// Publish delivers the master batch for one mix bus to its subscribers.
func (m *MasterFeed) Publish(track int, batch SourceFrames) {
	m.tracks[track].Publish(batch)
}
