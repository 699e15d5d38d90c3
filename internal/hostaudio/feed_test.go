package hostaudio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchout/go-branch-audio/internal/hostaudio"
)

func TestFeed_PublishReachesAllSubscribers(t *testing.T) {
	feed := hostaudio.NewFeed[int]()

	var a, b []int
	feed.Subscribe(func(v int) { a = append(a, v) })
	feed.Subscribe(func(v int) { b = append(b, v) })

	feed.Publish(1)
	feed.Publish(2)

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestFeed_CancelDetaches(t *testing.T) {
	feed := hostaudio.NewFeed[int]()

	var got []int
	cancel := feed.Subscribe(func(v int) { got = append(got, v) })

	feed.Publish(1)
	cancel()
	feed.Publish(2)
	cancel() // idempotent

	assert.Equal(t, []int{1}, got)
}

func TestFeed_PublishWithoutSubscribers(t *testing.T) {
	feed := hostaudio.NewFeed[string]()
	assert.NotPanics(t, func() { feed.Publish("nobody home") })
}

func TestMasterFeed_TracksAreIndependent(t *testing.T) {
	master := hostaudio.NewMasterFeed()

	var got []uint64
	master.Track(1).Subscribe(func(b hostaudio.SourceFrames) {
		got = append(got, b.TimestampNS)
	})

	master.Publish(0, hostaudio.SourceFrames{TimestampNS: 10})
	master.Publish(1, hostaudio.SourceFrames{TimestampNS: 20})
	master.Publish(2, hostaudio.SourceFrames{TimestampNS: 30})

	require.Equal(t, []uint64{20}, got)
}
