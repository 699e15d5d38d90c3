package hostaudio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/hostaudio"
)

// addConstant adds value to every frame of every bus in its mask.
type addConstant struct {
	value float32
	last  uint64
}

func (a *addConstant) MixOutput(startTimestampNS uint64, mixers uint32, out [][][]float32) uint64 {
	a.last = startTimestampNS
	for mix := range out {
		if mixers&(1<<uint(mix)) == 0 {
			continue
		}
		for _, ch := range out[mix] {
			for i := range ch {
				ch[i] += a.value
			}
		}
	}
	return startTimestampNS
}

func TestOpenOutput_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := hostaudio.OpenOutput(logger, hostaudio.Info{Name: "x", Channels: 2})
	assert.Error(t, err, "sample rate is required")

	_, err = hostaudio.OpenOutput(logger, hostaudio.Info{Name: "x", SampleRate: 48000})
	assert.Error(t, err, "channel count is required")

	_, err = hostaudio.OpenOutput(logger, hostaudio.Info{
		Name: "x", SampleRate: 48000, Channels: hostaudio.MaxChannels + 1,
	})
	assert.Error(t, err)

	out, err := hostaudio.OpenOutput(logger, hostaudio.Info{
		Name: "x", SampleRate: 48000, Channels: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, hostaudio.DefaultOutputFrames, out.Info().Frames)
}

func TestRenderOnce_AccumulatesConnections(t *testing.T) {
	out, err := hostaudio.OpenOutput(zap.NewNop(), hostaudio.Info{
		Name: "mix", SampleRate: 48000, Channels: 2, Frames: 64,
	})
	require.NoError(t, err)

	out.Connect(0b1, &addConstant{value: 0.25})
	out.Connect(0b1, &addConstant{value: 0.5})

	var got map[int]float32
	out.AddReceiver(func(bus int, planar [][]float32, _ uint64) {
		if got == nil {
			got = make(map[int]float32)
		}
		got[bus] = planar[0][0]
	})

	out.RenderOnce(0)

	require.Contains(t, got, 0)
	assert.InDelta(t, 0.75, got[0], 1e-6, "connections add into the shared bus")
	assert.NotContains(t, got, 1, "inactive buses are not delivered")
}

func TestRenderOnce_ZeroesBusesBetweenPeriods(t *testing.T) {
	out, err := hostaudio.OpenOutput(zap.NewNop(), hostaudio.Info{
		Name: "mix", SampleRate: 48000, Channels: 1, Frames: 16,
	})
	require.NoError(t, err)

	out.Connect(0b1, &addConstant{value: 0.5})

	var samples []float32
	out.AddReceiver(func(_ int, planar [][]float32, _ uint64) {
		samples = append(samples, planar[0][0])
	})

	out.RenderOnce(0)
	out.RenderOnce(1)

	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 1e-6)
	assert.InDelta(t, 0.5, samples[1], 1e-6, "buses must start each period silent")
}

func TestDisconnectStopsCallbacks(t *testing.T) {
	out, err := hostaudio.OpenOutput(zap.NewNop(), hostaudio.Info{
		Name: "mix", SampleRate: 48000, Channels: 1, Frames: 16,
	})
	require.NoError(t, err)

	cb := &addConstant{value: 0.5}
	disconnect := out.Connect(0b1, cb)

	out.RenderOnce(100)
	assert.Equal(t, uint64(100), cb.last)

	disconnect()
	disconnect() // idempotent
	out.RenderOnce(200)
	assert.Equal(t, uint64(100), cb.last, "disconnected callbacks must not run")
}

func TestStartStop(t *testing.T) {
	out, err := hostaudio.OpenOutput(zap.NewNop(), hostaudio.Info{
		Name: "mix", SampleRate: 48000, Channels: 1, Frames: 16,
	})
	require.NoError(t, err)

	out.Start()
	out.Start() // no-op on a running output
	out.Stop()
	out.Stop() // no-op on a stopped output
}
