package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/branchout/go-branch-audio/internal/hostaudio"
)

// AudioConfig stores the host audio line the branch outputs run at.
type AudioConfig struct {
	SampleRate   uint32 `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	OutputFrames int    `yaml:"output_frames"`
}

// BranchConfig stores branch-output defaults.
type BranchConfig struct {
	// Mixers is the default mix-bus bitmask new branches feed.
	Mixers uint32 `yaml:"mixers"`
	// SettingsCacheSize bounds how many torn-down branches keep their
	// settings remembered for re-creation.
	SettingsCacheSize int `yaml:"settings_cache_size"`
}

// RecordConfig stores the WAV record-output settings.
type RecordConfig struct {
	Directory string `yaml:"directory"`
	Bus       int    `yaml:"bus"`
}

// StreamConfig stores the Opus stream-output settings.
type StreamConfig struct {
	Enabled bool `yaml:"enabled"`
	Bitrate int  `yaml:"bitrate"`
	Bus     int  `yaml:"bus"`
}

// Config stores the application configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Audio    AudioConfig  `yaml:"audio"`
	Branch   BranchConfig `yaml:"branch"`
	Record   RecordConfig `yaml:"record"`
	Stream   StreamConfig `yaml:"stream"`
}

// LoadConfig loads the configuration from the given file path and
// applies defaults for unset fields.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filePath, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Audio.OutputFrames == 0 {
		c.Audio.OutputFrames = hostaudio.DefaultOutputFrames
	}
	if c.Branch.Mixers == 0 {
		c.Branch.Mixers = 0x1
	}
	if c.Branch.SettingsCacheSize == 0 {
		c.Branch.SettingsCacheSize = 32
	}
	if c.Record.Directory == "" {
		c.Record.Directory = "recordings"
	}
	if c.Stream.Bitrate == 0 {
		c.Stream.Bitrate = 64000
	}
}
