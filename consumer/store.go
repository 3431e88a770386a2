package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// Slot names one of the two cached configs.
type Slot string

const (
	SlotFetched Slot = "fetched"
	SlotActive  Slot = "active"
)

// Snapshot is one fetched parameter set.
type Snapshot struct {
	Values          map[string]string
	ETag            string
	TemplateVersion model.VersionNumber
	FetchedAt       time.Time
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		out.Values[k] = v
	}
	return &out
}

// Store persists snapshots between process runs. Get returns nil, nil for an empty slot.
type Store interface {
	Get(ctx context.Context, slot Slot) (*Snapshot, error)
	Put(ctx context.Context, slot Slot, s *Snapshot) error
	Close() error
}

// MemoryStore keeps snapshots for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[Slot]*Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[Slot]*Snapshot)}
}

func (m *MemoryStore) Get(_ context.Context, slot Slot) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[slot].clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, slot Slot, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = s.clone()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
