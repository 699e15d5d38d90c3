// Package branch implements the capture lifecycle wrapper: one Branch
// per audio owner (source, filter, or master track), each owning an
// audio capture engine and a host audio-output handle.
package branch

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/capture"
	"github.com/branchout/go-branch-audio/internal/hostaudio"
	"github.com/branchout/go-branch-audio/internal/sink"
)

// Settings configures one branch output.
type Settings struct {
	Name         string
	Kind         capture.SourceKind
	Mixers       uint32 // mix-bus bitmask this branch feeds
	Track        int    // master track index; MasterTrack only
	SampleRate   uint32
	Channels     int
	OutputFrames int
}

// Producer binds a capture to its raw-audio subscription. The binding
// is captured at attach time; there are no opaque context pointers to
// resolve later.
type Producer interface {
	Attach(c *capture.AudioCapture) (detach func())
}

// SourceProducer feeds a capture from a source's direct raw-audio feed.
type SourceProducer struct {
	Feed *hostaudio.Feed[hostaudio.SourceFrames]
}

// Attach implements Producer.
func (p SourceProducer) Attach(c *capture.AudioCapture) (detach func()) {
	return p.Feed.Subscribe(c.PushSource)
}

// FilterProducer feeds a capture from a host audio filter's forwarded
// audio.
type FilterProducer struct {
	Feed *hostaudio.Feed[hostaudio.FilterFrames]
}

// Attach implements Producer.
func (p FilterProducer) Attach(c *capture.AudioCapture) (detach func()) {
	return p.Feed.Subscribe(c.PushFilter)
}

// MasterProducer feeds a capture from one track of the host's master
// mix.
type MasterProducer struct {
	Feed  *hostaudio.MasterFeed
	Track int
}

// Attach implements Producer.
func (p MasterProducer) Attach(c *capture.AudioCapture) (detach func()) {
	return p.Feed.Track(p.Track).Subscribe(c.PushSource)
}

// Status is a read-only snapshot of a branch.
type Status struct {
	Name           string
	Kind           capture.SourceKind
	Valid          bool
	Active         bool
	BufferedFrames int
}

// Branch duplicates one owner's audio into an independent output. A
// branch whose host audio output failed to open is invalid: it has no
// backing handle, every push and pop is a no-op, and callers must
// check Valid before relying on it.
type Branch struct {
	logger   *zap.Logger
	settings Settings
	capture  *capture.AudioCapture
	output   *hostaudio.Output

	mu         sync.Mutex
	sinks      []sink.Sink
	detach     func()
	disconnect func()
	closed     bool
}

// New creates a branch, opens its host audio output, attaches the
// producer subscription, and starts delivering. On output-open failure
// the returned branch is invalid (Valid reports false) alongside the
// error, so callers holding the instance observe no-op semantics.
func New(logger *zap.Logger, settings Settings, producer Producer) (*Branch, error) {
	c := capture.New(logger, settings.Name, settings.Kind,
		settings.SampleRate, settings.Channels, settings.OutputFrames)

	b := &Branch{
		logger:   logger,
		settings: settings,
		capture:  c,
	}

	out, err := hostaudio.OpenOutput(logger, hostaudio.Info{
		Name:       settings.Name,
		SampleRate: settings.SampleRate,
		Channels:   settings.Channels,
		Frames:     settings.OutputFrames,
	})
	if err != nil {
		logger.Error("branch output has no backing audio handle",
			zap.String("name", settings.Name),
			zap.Error(err))
		return b, fmt.Errorf("branch %q: %w", settings.Name, err)
	}
	b.output = out

	out.AddReceiver(b.deliverToSinks)
	b.disconnect = out.Connect(settings.Mixers, c)
	b.detach = producer.Attach(c)

	c.SetActive(true)
	out.Start()

	logger.Info("branch output created",
		zap.String("name", settings.Name),
		zap.Stringer("kind", settings.Kind),
		zap.Uint32("mixers", settings.Mixers))

	return b, nil
}

// Name returns the branch's owner name.
func (b *Branch) Name() string {
	return b.settings.Name
}

// Settings returns the settings the branch was created with.
func (b *Branch) Settings() Settings {
	return b.settings
}

// Output returns the branch's host audio output, or nil when the
// branch is invalid. Offline rendering stops the pump and drives
// periods through it directly.
func (b *Branch) Output() *hostaudio.Output {
	return b.output
}

// Valid reports whether the branch has a backing host audio handle.
func (b *Branch) Valid() bool {
	return b.output != nil
}

// Active reports whether the branch is currently capturing.
func (b *Branch) Active() bool {
	return b.capture.Active()
}

// SetActive enables or disables the branch. Disabling flushes the
// buffered audio; reactivation starts clean with the usual underrun
// behavior. No-op on an invalid branch.
func (b *Branch) SetActive(active bool) {
	if !b.Valid() {
		return
	}
	b.capture.SetActive(active)
}

// AddSink attaches s to receive the branch's mixed output. The branch
// closes its sinks on Close.
func (b *Branch) AddSink(s sink.Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Status returns a point-in-time view of the branch.
func (b *Branch) Status() Status {
	return Status{
		Name:           b.settings.Name,
		Kind:           b.settings.Kind,
		Valid:          b.Valid(),
		Active:         b.capture.Active(),
		BufferedFrames: b.capture.BufferedFrames(),
	}
}

// Close tears the branch down: inactive first so in-flight callbacks
// return early, then the producer subscription, then the host handle,
// then the sinks. Close is idempotent.
func (b *Branch) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	b.capture.SetActive(false)

	if b.detach != nil {
		b.detach()
	}
	if b.disconnect != nil {
		b.disconnect()
	}
	if b.output != nil {
		b.output.Stop()
	}

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	b.logger.Info("branch output closed", zap.String("name", b.settings.Name))
	return firstErr
}

// deliverToSinks fans one mixed bus out to the attached sinks. Runs on
// the output pump goroutine.
func (b *Branch) deliverToSinks(bus int, planar [][]float32, timestampNS uint64) {
	b.mu.Lock()
	sinks := append([]sink.Sink(nil), b.sinks...)
	b.mu.Unlock()

	for _, s := range sinks {
		if err := s.WriteMix(bus, planar, timestampNS); err != nil {
			b.logger.Warn("sink write failed",
				zap.String("name", b.settings.Name),
				zap.Int("bus", bus),
				zap.Error(err))
		}
	}
}
