package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/pkg/audio"
)

// WAV is the record output: it writes one mix bus to a 16-bit PCM WAV
// file. The file is finalized (header sizes patched) on Close.
type WAV struct {
	logger *zap.Logger
	bus    int

	mu     sync.Mutex
	file   *os.File
	enc    *wav.Encoder
	buf    *gaudio.IntBuffer
	closed bool
}

// NewWAV creates dir if needed and opens a timestamped WAV file for
// the given bus.
func NewWAV(logger *zap.Logger, dir, name string, sampleRate uint32, channels, bus int) (*WAV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", name, time.Now().Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(file, int(sampleRate), 16, channels, 1)

	logger.Info("record output opened",
		zap.String("file", path),
		zap.Uint32("sample_rate", sampleRate),
		zap.Int("channels", channels),
		zap.Int("bus", bus))

	return &WAV{
		logger: logger,
		bus:    bus,
		file:   file,
		enc:    enc,
		buf: &gaudio.IntBuffer{
			Format:         &gaudio.Format{NumChannels: channels, SampleRate: int(sampleRate)},
			SourceBitDepth: 16,
		},
	}, nil
}

// WriteMix implements Sink. Buses other than the configured one are
// ignored.
func (w *WAV) WriteMix(bus int, planar [][]float32, _ uint64) error {
	if bus != w.bus {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	pcm := audio.Interleave(planar)
	if cap(w.buf.Data) < len(pcm) {
		w.buf.Data = make([]int, len(pcm))
	}
	w.buf.Data = w.buf.Data[:len(pcm)]
	for i, s := range pcm {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav frames: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file. Close is
// idempotent.
func (w *WAV) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}

	w.logger.Info("record output closed", zap.String("file", w.file.Name()))
	return nil
}
