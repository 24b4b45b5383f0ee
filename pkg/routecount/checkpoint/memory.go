package checkpoint

import (
	"sync"
)

// MemoryStore is an in-memory checkpoint store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[Key]storedCheckpoint
	saves  map[Key]int
	closed bool
}

// storedCheckpoint holds the serialized current checkpoint and its backup.
type storedCheckpoint struct {
	current []byte
	backup  []byte
}

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[Key]storedCheckpoint),
		saves: make(map[Key]int),
	}
}

// Path returns a pseudo-location for key.
func (m *MemoryStore) Path(key Key) string {
	return "memory:" + key.String()
}

// Save implements Store.
func (m *MemoryStore) Save(key Key, cp *Checkpoint) error {
	if err := checkIdentity(key, cp); err != nil {
		return &Error{Op: "save", JobID: key.JobID, Path: "memory", Err: err}
	}
	// Serialize so later mutation of cp by the caller is not observed.
	data, err := cp.Marshal()
	if err != nil {
		return &Error{Op: "save", JobID: key.JobID, Path: "memory", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	prev := m.data[key]
	m.data[key] = storedCheckpoint{current: data, backup: prev.current}
	m.saves[key]++
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(key Key) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	stored, ok := m.data[key]
	if !ok {
		return nil, &Error{Op: "load", JobID: key.JobID, Path: "memory", Err: ErrNotFound}
	}
	cp, err := Unmarshal(stored.current)
	if err != nil {
		return nil, &Error{Op: "load", JobID: key.JobID, Path: "memory", Err: err}
	}
	if err := checkIdentity(key, cp); err != nil {
		return nil, &Error{Op: "load", JobID: key.JobID, Path: "memory", Err: err}
	}
	return cp, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, key)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Saves returns how many times key has been saved.
// Useful for testing.
func (m *MemoryStore) Saves(key Key) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[key]
}

// Put stores raw bytes as the current checkpoint for key, bypassing
// validation. Useful for testing damaged checkpoints.
func (m *MemoryStore) Put(key Key, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = storedCheckpoint{current: stored}
}
