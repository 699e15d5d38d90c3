// Package hostaudio implements the host media runtime's audio surface:
// a periodic mix output pump and raw-audio subscription feeds. The
// capture engine treats these as collaborators; they carry no buffering
// policy of their own.
package hostaudio

const (
	// MaxChannels is the number of audio channel planes a frame batch
	// can carry. Unused planes are nil.
	MaxChannels = 8

	// MaxMixes is the number of independent mix buses an output serves.
	MaxMixes = 6

	// DefaultOutputFrames is the fixed number of frames drained per
	// output period when the config does not override it.
	DefaultOutputFrames = 1024
)

// SourceFrames is the host-native raw-audio batch a source (or the
// master mix) delivers: planar float samples, one optional plane per
// channel, plus capture metadata.
type SourceFrames struct {
	Data        [MaxChannels][]float32
	Frames      int
	TimestampNS uint64
	SampleRate  uint32
	Muted       bool
}

// FilterFrames is the filter-native batch shape forwarded from a host
// audio filter: planar float samples without capture metadata. The
// slice holds at most MaxChannels planes; absent channels are nil.
type FilterFrames struct {
	Data        [][]float32
	Frames      int
	TimestampNS uint64
}

// MixCallback is the typed periodic audio-output callback. The host
// invokes MixOutput once per fixed output period with the period's
// start timestamp, a bitmask of active mix buses, and per-bus
// per-channel output buffers that may already hold samples from other
// connected callbacks. Implementations accumulate additively and
// return the output timestamp for the period.
//
// MixOutput must never block: a stalled callback stalls every other
// mix consumer on the output.
type MixCallback interface {
	MixOutput(startTimestampNS uint64, mixers uint32, out [][][]float32) uint64
}

// MixReceiver consumes one bus worth of mixed planar audio after all
// connected callbacks ran for a period.
type MixReceiver func(bus int, planar [][]float32, timestampNS uint64)
