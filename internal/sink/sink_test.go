package sink_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/sink"
)

func planarConstant(channels, frames int, value float32) [][]float32 {
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, frames)
		for i := range planar[ch] {
			planar[ch][i] = value
		}
	}
	return planar
}

func recordedFile(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return filepath.Join(dir, entries[0].Name())
}

func TestWAV_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := sink.NewWAV(zap.NewNop(), dir, "take", 48000, 2, 0)
	require.NoError(t, err)

	require.NoError(t, w.WriteMix(0, planarConstant(2, 480, 0.5), 0))
	require.NoError(t, w.WriteMix(0, planarConstant(2, 480, -0.25), 0))
	require.NoError(t, w.WriteMix(1, planarConstant(2, 480, 1.0), 0), "other buses are ignored")
	require.NoError(t, w.Close())

	path := recordedFile(t, dir)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "take_"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 48000, buf.Format.SampleRate)
	require.Len(t, buf.Data, 2*960, "the ignored bus must not add frames")

	// Interleaved: first period at +0.5, second at -0.25.
	assert.Equal(t, 16383, buf.Data[0])
	assert.Equal(t, -8191, buf.Data[2*480])
}

func TestWAV_CloseIdempotent(t *testing.T) {
	w, err := sink.NewWAV(zap.NewNop(), t.TempDir(), "take", 48000, 1, 0)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.NoError(t, w.WriteMix(0, planarConstant(1, 480, 0.5), 0), "writes after close are dropped")
}

func TestOpus_EmitsPacketsAtFrameBoundaries(t *testing.T) {
	type packet struct {
		data []byte
		ts   uint64
	}
	var packets []packet

	o, err := sink.NewOpus(zap.NewNop(), 48000, 2, 0, 64000, func(p []byte, ts uint64) {
		packets = append(packets, packet{data: p, ts: ts})
	})
	require.NoError(t, err)
	defer o.Close()

	// One 20 ms frame is 960 samples per channel at 48 kHz. A 480-frame
	// period only fills half a frame.
	require.NoError(t, o.WriteMix(0, planarConstant(2, 480, 0.1), 1_000_000))
	assert.Empty(t, packets)

	require.NoError(t, o.WriteMix(0, planarConstant(2, 480, 0.1), 11_000_000))
	require.Len(t, packets, 1)
	assert.NotEmpty(t, packets[0].data)
	assert.Equal(t, uint64(1_000_000), packets[0].ts, "packet carries the backlog-start timestamp")

	// Two full frames at once.
	require.NoError(t, o.WriteMix(0, planarConstant(2, 1920, 0.1), 21_000_000))
	require.Len(t, packets, 3)
	assert.Equal(t, packets[1].ts+20_000_000, packets[2].ts)
}

func TestOpus_IgnoresOtherBuses(t *testing.T) {
	var calls int
	o, err := sink.NewOpus(zap.NewNop(), 48000, 2, 3, 64000, func([]byte, uint64) { calls++ })
	require.NoError(t, err)
	defer o.Close()

	require.NoError(t, o.WriteMix(0, planarConstant(2, 1920, 0.1), 0))
	assert.Zero(t, calls)
}

func TestOpus_CloseDropsPartialFrame(t *testing.T) {
	var calls int
	o, err := sink.NewOpus(zap.NewNop(), 48000, 2, 0, 64000, func([]byte, uint64) { calls++ })
	require.NoError(t, err)

	require.NoError(t, o.WriteMix(0, planarConstant(2, 480, 0.1), 0))
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())

	assert.NoError(t, o.WriteMix(0, planarConstant(2, 1920, 0.1), 0))
	assert.Zero(t, calls)
}

func TestCounting(t *testing.T) {
	c := sink.NewCounting()
	require.NoError(t, c.WriteMix(0, planarConstant(2, 480, 0), 0))
	require.NoError(t, c.WriteMix(0, planarConstant(2, 480, 0), 0))
	require.NoError(t, c.WriteMix(2, planarConstant(2, 256, 0), 0))

	assert.Equal(t, 2, c.Periods[0])
	assert.Equal(t, 960, c.Frames[0])
	assert.Equal(t, 256, c.Frames[2])
	assert.NoError(t, c.Close())
}
