package persist

import "sync"

// MemoryStore is an in-process KV used for tests and the memory backend.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	sets    int
	deletes int

	// Fail, when set, is returned by every operation.
	Fail error
}

// NewMemoryStore constructs an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, false, m.Fail
	}
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value.
func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.values[key] = append([]byte(nil), value...)
	m.sets++
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	delete(m.values, key)
	m.deletes++
	return nil
}

// Writes reports how many Set and Delete calls succeeded.
func (m *MemoryStore) Writes() (sets, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets, m.deletes
}
