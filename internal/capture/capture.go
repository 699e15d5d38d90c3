// Package capture implements the audio engine that bridges push-driven
// producers (arbitrary, irregularly sized raw-audio batches) to the
// host's pull-driven periodic mix output: a chunked ring buffer with
// header framing, additive multi-bus mixing with hard saturation, and
// overflow/underrun recovery.
package capture

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/hostaudio"
	"github.com/branchout/go-branch-audio/pkg/audio"
	"github.com/branchout/go-branch-audio/pkg/ringbuf"
	"github.com/branchout/go-branch-audio/pkg/util"
)

// MaxBufferedFrames is the hard ceiling on queued frames. A push that
// would exceed it discards the whole buffer: partial eviction would
// corrupt chunk framing, and a full producer is assumed to be a
// transient burst that self-corrects once draining resumes.
const MaxBufferedFrames = 131071

// SourceKind selects which producer subscription feeds a capture. The
// drain algorithm is identical for all kinds.
type SourceKind int

const (
	// SourceCapture consumes a source's direct raw-audio callback.
	SourceCapture SourceKind = iota
	// FilterCapture consumes audio forwarded by a host audio filter.
	FilterCapture
	// MasterTrack consumes one mix bus of the host's final mix.
	MasterTrack
)

// String returns the kind's config/log name.
func (k SourceKind) String() string {
	switch k {
	case SourceCapture:
		return "source"
	case FilterCapture:
		return "filter"
	case MasterTrack:
		return "master"
	default:
		return "unknown"
	}
}

// Batch is the normalized internal shape both producer inputs reduce
// to before framing: planar float planes (nil = absent channel), a
// frame count, and the producer timestamp.
type Batch struct {
	Data        [hostaudio.MaxChannels][]float32
	Frames      int
	TimestampNS uint64
}

// AudioCapture owns one chunked ring buffer and duplicates a single
// producer's audio into the host mix buses. One instance exists per
// branched source, filter, or master track.
//
// All ring-buffer state (chunk queue, buffered-frame counter, scratch
// buffer) is guarded by one mutex; producer and consumer callbacks
// both run under it. The consumer's critical section is bounded by one
// output period's worth of chunks, so producers are never starved for
// long.
type AudioCapture struct {
	logger *zap.Logger
	name   string
	kind   SourceKind

	sampleRate   uint32
	channels     int
	outputFrames int

	mu       sync.Mutex
	chunks   ringbuf.Deque[chunk]
	buffered int // unconsumed frames across all queued chunks
	scratch  []float32
	active   bool

	// overflow can repeat at callback rate while the consumer is
	// stalled; keep the warning to one per second.
	overflowWarn *util.RateLimiter
}

// New creates an inactive capture for one owner. outputFrames is the
// host's fixed output-period size; pops deliver exactly that many
// frames or silence.
func New(logger *zap.Logger, name string, kind SourceKind, sampleRate uint32, channels, outputFrames int) *AudioCapture {
	if outputFrames <= 0 {
		outputFrames = hostaudio.DefaultOutputFrames
	}
	return &AudioCapture{
		logger:       logger,
		name:         name,
		kind:         kind,
		sampleRate:   sampleRate,
		channels:     channels,
		outputFrames: outputFrames,
		overflowWarn: util.NewRateLimiter(time.Second),
	}
}

// Name returns the owner name the capture was created with.
func (c *AudioCapture) Name() string {
	return c.name
}

// Kind returns the capture's producer kind.
func (c *AudioCapture) Kind() SourceKind {
	return c.kind
}

// Active reports whether the capture is accepting and delivering audio.
func (c *AudioCapture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// BufferedFrames returns the number of unconsumed frames currently
// queued. Outside the critical section this always equals the sum of
// (Frames - Consumed) over all queued chunks.
func (c *AudioCapture) BufferedFrames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffered
}

// PeekHeader returns a copy of the front chunk's header without
// consuming it. ok is false when the ring buffer is empty.
func (c *AudioCapture) PeekHeader() (h ChunkHeader, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chunks.Len() == 0 {
		return ChunkHeader{}, false
	}
	return c.chunks.Front().header, true
}

// SetActive enables or disables the capture. Disabling flushes the
// ring buffer under the same mutex discipline as push/pop, so no stale
// frames survive into a later reactivation. In-flight callbacks
// complete under the state they observed.
func (c *AudioCapture) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == active {
		return
	}
	c.active = active

	if !active {
		c.chunks.Reset()
		c.buffered = 0
	}

	c.logger.Info("capture state changed",
		zap.String("name", c.name),
		zap.Stringer("kind", c.kind),
		zap.Bool("active", active))
}

// PushSource feeds one host-native raw-audio batch. Muted batches are
// dropped; the branch goes silent rather than buffering muted frames.
func (c *AudioCapture) PushSource(frames hostaudio.SourceFrames) {
	if frames.Muted || frames.Frames == 0 {
		return
	}
	c.push(Batch{
		Data:        frames.Data,
		Frames:      frames.Frames,
		TimestampNS: frames.TimestampNS,
	})
}

// PushFilter feeds one filter-native batch forwarded by a host audio
// filter.
func (c *AudioCapture) PushFilter(frames hostaudio.FilterFrames) {
	if frames.Frames == 0 {
		return
	}
	var b Batch
	for ch := 0; ch < len(frames.Data) && ch < hostaudio.MaxChannels; ch++ {
		b.Data[ch] = frames.Data[ch]
	}
	b.Frames = frames.Frames
	b.TimestampNS = frames.TimestampNS
	c.push(b)
}

// push frames the batch and appends it to the ring buffer. Runs on
// whatever thread the host calls the producer from; concurrent callers
// are serialized by the capture mutex.
func (c *AudioCapture) push(batch Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}

	if c.buffered+batch.Frames > MaxBufferedFrames {
		// Unrecoverable backpressure: the consumer has stalled or the
		// producer is bursting. Drop everything, including this batch,
		// and restart framing from the next push. Partial eviction
		// would corrupt chunk framing.
		if ok, suppressed := c.overflowWarn.Allow(); ok {
			c.logger.Warn("audio buffer overflow, dropping buffered audio",
				zap.String("name", c.name),
				zap.Stringer("kind", c.kind),
				zap.Int("buffered_frames", c.buffered),
				zap.Int("incoming_frames", batch.Frames),
				zap.Int("suppressed_warnings", suppressed))
		}
		c.chunks.Reset()
		c.buffered = 0
		return
	}

	var ck chunk
	ck, c.scratch = packChunk(c.scratch, batch, c.sampleRate, c.channels)
	c.chunks.PushBack(ck)
	c.buffered += batch.Frames
}

// MixOutput drains exactly one output period from the ring buffer into
// every active mix bus, adding each sample into the destination and
// clamping the result to [-1, 1]. It implements hostaudio.MixCallback.
//
// The output timestamp is always the input start timestamp: the engine
// is a frame-count-driven accumulator, not a resampler. On underrun it
// returns immediately without touching the buses — a deliberate drop,
// never a wait, because a stalled periodic callback stalls the host's
// whole audio pipeline.
func (c *AudioCapture) MixOutput(startTimestampNS uint64, mixers uint32, out [][][]float32) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return startTimestampNS
	}

	if c.buffered < c.outputFrames {
		// Underrun: emit silence for this period. Expected during
		// startup and pauses; not an error.
		return startTimestampNS
	}

	pos := 0
	for pos < c.outputFrames && c.chunks.Len() > 0 {
		front := c.chunks.Front()
		take := front.remaining()
		if need := c.outputFrames - pos; take > need {
			take = need
		}

		consumed := int(front.header.Consumed)
		for mix := 0; mix < len(out); mix++ {
			if mixers&(1<<uint(mix)) == 0 {
				continue
			}
			bus := out[mix]
			for ch := 0; ch < len(bus) && ch < hostaudio.MaxChannels; ch++ {
				src := front.channelData(ch)
				if src == nil {
					continue
				}
				dst := bus[ch]
				for i := 0; i < take; i++ {
					dst[pos+i] = audio.Clamp(dst[pos+i] + src[consumed+i])
				}
			}
		}

		if take == front.remaining() {
			c.chunks.PopFront()
		} else {
			front.header.Consumed += uint32(take)
		}
		c.buffered -= take
		pos += take
	}

	return startTimestampNS
}
