package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchout/go-branch-audio/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
audio:
  sample_rate: 44100
  channels: 2
  output_frames: 512
branch:
  mixers: 3
  settings_cache_size: 8
record:
  directory: /tmp/branch-rec
  bus: 1
stream:
  enabled: true
  bitrate: 96000
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint32(44100), cfg.Audio.SampleRate)
	assert.Equal(t, 512, cfg.Audio.OutputFrames)
	assert.Equal(t, uint32(3), cfg.Branch.Mixers)
	assert.Equal(t, 8, cfg.Branch.SettingsCacheSize)
	assert.Equal(t, "/tmp/branch-rec", cfg.Record.Directory)
	assert.Equal(t, 1, cfg.Record.Bus)
	assert.True(t, cfg.Stream.Enabled)
	assert.Equal(t, 96000, cfg.Stream.Bitrate)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(48000), cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Audio.Channels)
	assert.Equal(t, 1024, cfg.Audio.OutputFrames)
	assert.Equal(t, uint32(0x1), cfg.Branch.Mixers)
	assert.Equal(t, 32, cfg.Branch.SettingsCacheSize)
	assert.Equal(t, "recordings", cfg.Record.Directory)
	assert.Equal(t, 64000, cfg.Stream.Bitrate)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfig(t, "audio: [not a mapping")
	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}
