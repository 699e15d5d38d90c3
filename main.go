// Package main provides the entry point for the branch audio engine demo.
//
// The demo feeds a generated tone through a branch output and writes
// the mixed result to the configured record and stream sinks, standing
// in for a live host's capture callbacks.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/app"
	"github.com/branchout/go-branch-audio/internal/branch"
	"github.com/branchout/go-branch-audio/internal/capture"
	"github.com/branchout/go-branch-audio/internal/config"
	"github.com/branchout/go-branch-audio/internal/hostaudio"
	"github.com/branchout/go-branch-audio/internal/infrastructure"
	"github.com/branchout/go-branch-audio/internal/sink"
)

func main() {
	// Set a default config path. This can be overridden by environment variables or flags if needed.
	configPath := "config.yaml"

	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// Application modules
		branch.Module,

		// Supply the config path
		fx.Supply(configPath),

		// Demo source feeding the engine
		fx.Invoke(runDemoSource),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
	)

	// Set up a channel to listen for OS signals (like Ctrl+C)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go application.Run()

	sig := <-sigCh
	fmt.Printf("Received signal: %s, initiating shutdown.\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Application has shut down gracefully.")
}

// demoBatchFrames is the batch size the demo publisher pushes, chosen
// smaller than the output period so the engine exercises partial-chunk
// draining.
const demoBatchFrames = 480

// runDemoSource creates one branch fed by a generated 440 Hz tone and
// attaches the configured sinks to it.
func runDemoSource(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config, m *branch.Manager) error {
	feed := hostaudio.NewFeed[hostaudio.SourceFrames]()

	b, err := m.Create(branch.Settings{
		Name: "demo-tone",
		Kind: capture.SourceCapture,
	}, branch.SourceProducer{Feed: feed})
	if err != nil {
		return err
	}

	settings := b.Settings()

	wavSink, err := sink.NewWAV(logger, cfg.Record.Directory, b.Name(),
		settings.SampleRate, settings.Channels, cfg.Record.Bus)
	if err != nil {
		return err
	}
	b.AddSink(wavSink)

	if cfg.Stream.Enabled {
		opusSink, err := sink.NewOpus(logger, settings.SampleRate, settings.Channels,
			cfg.Stream.Bus, cfg.Stream.Bitrate, func(packet []byte, ts uint64) {
				logger.Debug("stream packet",
					zap.Int("bytes", len(packet)),
					zap.Uint64("timestamp_ns", ts))
			})
		if err != nil {
			return err
		}
		b.AddSink(opusSink)
	}

	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go publishTone(feed, settings.SampleRate, settings.Channels, done)
			return nil
		},
		OnStop: func(context.Context) error {
			close(done)
			return nil
		},
	})
	return nil
}

// publishTone pushes sine batches at real-time pacing until done
// closes, standing in for the host's capture thread.
func publishTone(feed *hostaudio.Feed[hostaudio.SourceFrames], sampleRate uint32, channels int, done <-chan struct{}) {
	period := time.Duration(demoBatchFrames) * time.Second / time.Duration(sampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	step := 2 * math.Pi * 440 / float64(sampleRate)
	var phase float64
	var frame uint64

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			batch := hostaudio.SourceFrames{
				Frames:      demoBatchFrames,
				TimestampNS: frame * 1e9 / uint64(sampleRate),
				SampleRate:  sampleRate,
			}
			mono := make([]float32, demoBatchFrames)
			for i := range mono {
				mono[i] = float32(0.5 * math.Sin(phase))
				phase += step
			}
			for ch := 0; ch < channels; ch++ {
				batch.Data[ch] = mono
			}
			feed.Publish(batch)
			frame += demoBatchFrames
		}
	}
}
