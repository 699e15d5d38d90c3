// Package sink provides the consumers of a branch output's mixed
// audio: a WAV record sink and an Opus stream sink. Sinks receive one
// bus worth of planar float samples per output period.
package sink

// Sink consumes mixed planar audio for a single mix bus. WriteMix is
// called from the output pump goroutine and must not retain planar;
// the buffers are reused next period.
type Sink interface {
	WriteMix(bus int, planar [][]float32, timestampNS uint64) error
	Close() error
}

// Counting is a test sink recording how many periods and frames it
// received per bus.
type Counting struct {
	Periods map[int]int
	Frames  map[int]int
}

// NewCounting returns an empty counting sink.
func NewCounting() *Counting {
	return &Counting{Periods: make(map[int]int), Frames: make(map[int]int)}
}

// WriteMix implements Sink.
func (c *Counting) WriteMix(bus int, planar [][]float32, _ uint64) error {
	c.Periods[bus]++
	if len(planar) > 0 {
		c.Frames[bus] += len(planar[0])
	}
	return nil
}

// Close implements Sink.
func (c *Counting) Close() error { return nil }
