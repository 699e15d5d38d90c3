package branch

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/branchout/go-branch-audio/internal/config"
)

// Manager owns at most one branch per owner name and remembers the
// settings of removed branches, so an owner that comes back gets its
// previous mix routing without reconfiguration.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	mu       sync.Mutex
	branches map[string]*Branch

	remembered *lru.Cache[string, Settings]
}

// NewManager creates a branch manager from the loaded configuration.
func NewManager(logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	remembered, err := lru.New[string, Settings](cfg.Branch.SettingsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("settings cache: %w", err)
	}
	return &Manager{
		logger:     logger,
		cfg:        cfg,
		branches:   make(map[string]*Branch),
		remembered: remembered,
	}, nil
}

// Create builds a branch for the named owner and registers it. Fields
// left zero in settings are filled from remembered settings for that
// name, then from configuration defaults. Creating a second branch for
// a name that already has one is an error.
func (m *Manager) Create(settings Settings, producer Producer) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.branches[settings.Name]; ok {
		return nil, fmt.Errorf("branch %q already exists", settings.Name)
	}

	if prev, ok := m.remembered.Get(settings.Name); ok {
		if settings.Mixers == 0 {
			settings.Mixers = prev.Mixers
		}
		if settings.Track == 0 {
			settings.Track = prev.Track
		}
	}
	if settings.Mixers == 0 {
		settings.Mixers = m.cfg.Branch.Mixers
	}
	if settings.SampleRate == 0 {
		settings.SampleRate = m.cfg.Audio.SampleRate
	}
	if settings.Channels == 0 {
		settings.Channels = m.cfg.Audio.Channels
	}
	if settings.OutputFrames == 0 {
		settings.OutputFrames = m.cfg.Audio.OutputFrames
	}

	b, err := New(m.logger, settings, producer)
	if err != nil {
		return nil, err
	}

	m.branches[settings.Name] = b
	return b, nil
}

// Get returns the branch registered for name, if any.
func (m *Manager) Get(name string) (*Branch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.branches[name]
	return b, ok
}

// Remove closes and unregisters the named branch, remembering its
// settings for a later Create of the same name.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	b, ok := m.branches[name]
	if ok {
		delete(m.branches, name)
		m.remembered.Add(name, b.Settings())
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no branch %q", name)
	}
	return b.Close()
}

// Statuses returns a snapshot of every registered branch.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.branches))
	for _, b := range m.branches {
		out = append(out, b.Status())
	}
	return out
}

// Shutdown closes every branch. Used from the application's stop hook.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	branches := make([]*Branch, 0, len(m.branches))
	for _, b := range m.branches {
		branches = append(branches, b)
	}
	m.branches = make(map[string]*Branch)
	m.mu.Unlock()

	for _, b := range branches {
		if err := b.Close(); err != nil {
			m.logger.Warn("branch close failed",
				zap.String("name", b.Name()), zap.Error(err))
		}
	}
}
