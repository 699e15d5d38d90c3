package sink

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"layeh.com/gopus"

	"github.com/branchout/go-branch-audio/pkg/audio"
)

// maxOpusPacket is a conservative upper bound for one encoded packet.
const maxOpusPacket = 4000

// Opus is the stream output: it encodes one mix bus to 20 ms Opus
// packets and hands them to an emit callback. Output periods rarely
// align with Opus frame boundaries, so samples are accumulated in an
// interleaved backlog and encoded whenever a full frame is available.
type Opus struct {
	logger     *zap.Logger
	bus        int
	channels   int
	frameSize  int    // samples per channel per packet
	frameNanos uint64 // packet duration
	emit       func(packet []byte, timestampNS uint64)

	mu      sync.Mutex
	enc     *gopus.Encoder
	pending []int16 // interleaved samples awaiting a full frame
	ts      uint64  // timestamp of the backlog's first sample
	closed  bool
}

// NewOpus creates a stream sink for the given bus. emit is called from
// the output pump goroutine once per completed packet and must not
// block.
func NewOpus(logger *zap.Logger, sampleRate uint32, channels, bus, bitrate int, emit func([]byte, uint64)) (*Opus, error) {
	enc, err := gopus.NewEncoder(int(sampleRate), channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	enc.SetBitrate(bitrate)

	logger.Info("stream output opened",
		zap.Uint32("sample_rate", sampleRate),
		zap.Int("channels", channels),
		zap.Int("bus", bus),
		zap.Int("bitrate", bitrate))

	return &Opus{
		logger:     logger,
		bus:        bus,
		channels:   channels,
		frameSize:  int(sampleRate) / 50, // 20 ms
		frameNanos: 20_000_000,
		emit:       emit,
		enc:        enc,
	}, nil
}

// WriteMix implements Sink.
func (o *Opus) WriteMix(bus int, planar [][]float32, timestampNS uint64) error {
	if bus != o.bus {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}

	if len(o.pending) == 0 {
		o.ts = timestampNS
	}
	o.pending = append(o.pending, audio.Interleave(planar)...)

	samplesPerFrame := o.frameSize * o.channels
	for len(o.pending) >= samplesPerFrame {
		packet, err := o.enc.Encode(o.pending[:samplesPerFrame], o.frameSize, maxOpusPacket)
		if err != nil {
			return fmt.Errorf("encode opus frame: %w", err)
		}
		o.pending = o.pending[samplesPerFrame:]
		o.emit(packet, o.ts)
		o.ts += o.frameNanos
	}
	return nil
}

// Close discards any partial frame still in the backlog. Close is
// idempotent.
func (o *Opus) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.pending = nil

	o.logger.Info("stream output closed", zap.Int("bus", o.bus))
	return nil
}
