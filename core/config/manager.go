package config

import (
	"sync"
	"sync/atomic"
)

// Manager publishes configuration snapshots to concurrent readers.
// Readers call Get and receive an immutable *Config; writers swap in a
// fully built replacement atomically, so a running session never sees a
// partially updated configuration.
type Manager struct {
	current   atomic.Pointer[Config]
	watcherMu sync.RWMutex
	watchers  []func(*Config)
}

// NewManager constructs a Manager seeded with the default configuration.
func NewManager() *Manager {
	m := &Manager{}
	m.current.Store(DefaultConfig())
	return m
}

// Get returns the current configuration snapshot.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Set validates and publishes a new snapshot, notifying watchers.
func (m *Manager) Set(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.current.Store(cfg)
	m.notify(cfg)
	return nil
}

// LoadFromFile loads, validates, and publishes a configuration file.
func (m *Manager) LoadFromFile(path string) error {
	cfg, err := LoadFile(path)
	if err != nil {
		return err
	}
	m.current.Store(cfg)
	m.notify(cfg)
	return nil
}

// Watch registers a callback invoked after every published change.
func (m *Manager) Watch(fn func(*Config)) {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()
	m.watchers = append(m.watchers, fn)
}

func (m *Manager) notify(cfg *Config) {
	m.watcherMu.RLock()
	defer m.watcherMu.RUnlock()
	for _, fn := range m.watchers {
		fn(cfg)
	}
}
