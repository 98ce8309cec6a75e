package snapshot

import "sync"

// Memory keeps snapshots in a map. Used by tests and by --ephemeral runs.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
	// FailSaves makes every Save return this error when set
	FailSaves error
}

// NewMemory returns an empty in-memory Store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Save(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
