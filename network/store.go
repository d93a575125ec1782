package network

import (
	"context"
	"sync"

	"github.com/vitwit/kycsbt/types"
)

// Store persists the live network selection under types.StorageNamespace.
// Save replaces the whole value in one operation.
type Store interface {
	Load(ctx context.Context) (types.NetworkConfig, bool, error)
	Save(ctx context.Context, cfg types.NetworkConfig) error
}

// MemoryStore keeps the selection for the lifetime of the process.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg types.NetworkConfig
	ok  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (types.NetworkConfig, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneConfig(m.cfg), m.ok, nil
}

func (m *MemoryStore) Save(ctx context.Context, cfg types.NetworkConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cloneConfig(cfg)
	m.ok = true
	return nil
}

func cloneConfig(cfg types.NetworkConfig) types.NetworkConfig {
	if cfg.ChainID != nil {
		id := *cfg.ChainID
		cfg.ChainID = &id
	}
	return cfg
}
