package capture

import "github.com/branchout/go-branch-audio/internal/hostaudio"

// SampleFormat identifies the sample encoding of buffered audio. The
// engine stores everything as planar 32-bit float; the field exists so
// chunk headers stay self-describing.
type SampleFormat uint32

// FormatFloatPlanar is the only format the engine buffers.
const FormatFloatPlanar SampleFormat = 1

// ChunkHeader is the self-describing record prefixed to every buffered
// frame batch.
//
// ChannelOffset holds one-based sample offsets into the chunk's dense
// payload region; zero marks an absent (silent) channel. Nonzero
// offsets are strictly increasing in channel index and non-overlapping:
// present channels are packed back to back in channel order, not
// aligned to their channel index.
type ChunkHeader struct {
	ChannelOffset [hostaudio.MaxChannels]uint32
	Frames        uint32 // frames in this chunk; > 0 while unconsumed
	Consumed      uint32 // leading frames already delivered; < Frames
	TimestampNS   uint64 // producer capture timestamp, informational
	SampleRate    uint32
	Channels      uint32
	Format        SampleFormat
}

// chunk is one framed batch queued in the ring buffer: header plus the
// dense payload holding every present channel's samples back to back.
type chunk struct {
	header  ChunkHeader
	payload []float32
}

// remaining returns the frames not yet delivered to the consumer.
func (c *chunk) remaining() int {
	return int(c.header.Frames - c.header.Consumed)
}

// channelData returns channel ch's full sample window, or nil if the
// channel is absent from this chunk. The header is trusted: offsets
// out of payload range are a framing bug upstream, not a runtime
// condition.
func (c *chunk) channelData(ch int) []float32 {
	off := c.header.ChannelOffset[ch]
	if off == 0 {
		return nil
	}
	start := int(off - 1)
	return c.payload[start : start+int(c.header.Frames)]
}

// packChunk frames one normalized batch: present channels are assigned
// the next dense offset in channel order and their samples are staged
// through scratch before being copied into the chunk's own payload.
// scratch is grown (never shrunk) when the batch exceeds its capacity;
// the possibly reallocated slice is returned to the caller for reuse.
func packChunk(scratch []float32, batch Batch, sampleRate uint32, channels int) (chunk, []float32) {
	h := ChunkHeader{
		Frames:      uint32(batch.Frames),
		TimestampNS: batch.TimestampNS,
		SampleRate:  sampleRate,
		Channels:    uint32(channels),
		Format:      FormatFloatPlanar,
	}

	total := 0
	for ch := 0; ch < hostaudio.MaxChannels; ch++ {
		if batch.Data[ch] == nil {
			continue
		}
		h.ChannelOffset[ch] = uint32(total) + 1
		total += batch.Frames
	}

	if total > cap(scratch) {
		scratch = make([]float32, total)
	}
	scratch = scratch[:cap(scratch)]

	pos := 0
	for ch := 0; ch < hostaudio.MaxChannels; ch++ {
		if batch.Data[ch] == nil {
			continue
		}
		copy(scratch[pos:pos+batch.Frames], batch.Data[ch][:batch.Frames])
		pos += batch.Frames
	}

	payload := make([]float32, total)
	copy(payload, scratch[:total])

	return chunk{header: h, payload: payload}, scratch
}
