package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	cur      *Settings
	defaults Settings
}

// NewMemoryStore returns a store that starts from, and resets to, defaults.
func NewMemoryStore(defaults Settings) *MemoryStore {
	return &MemoryStore{defaults: clone(defaults)}
}

func (m *MemoryStore) Get(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(), nil
}

func (m *MemoryStore) Update(ctx context.Context, p Patch) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.load()
	if p.Empty() {
		return cur, nil
	}
	next, err := p.Apply(cur)
	if err != nil {
		return cur, err
	}
	m.cur = &next
	return next, nil
}

func (m *MemoryStore) Reset(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := clone(m.defaults)
	m.cur = &d
	return clone(d), nil
}

func (m *MemoryStore) load() Settings {
	if m.cur == nil {
		d := clone(m.defaults)
		m.cur = &d
	}
	return clone(*m.cur)
}

func clone(s Settings) Settings {
	s.PreferredPairs = append(s.PreferredPairs[:0:0], s.PreferredPairs...)
	return s
}
