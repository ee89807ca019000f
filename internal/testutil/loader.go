package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemLoader is an in-memory carousel keyed by canonical name.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemLoader struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemLoader creates a loader holding files.
func NewMemLoader(files map[string][]byte) *MemLoader {
	m := &MemLoader{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Put adds or replaces a file, simulating a carousel update.
func (m *MemLoader) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

// Remove deletes a file.
func (m *MemLoader) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

// CheckContentRef reports whether name is present.
func (m *MemLoader) CheckContentRef(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

// LoadFile returns a copy of name's bytes.
func (m *MemLoader) LoadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: not in carousel", name)
	}
	return bytes.Clone(data), nil
}

// OpenStream returns a reader over name's bytes.
func (m *MemLoader) OpenStream(name string) (io.ReadCloser, error) {
	data, err := m.LoadFile(name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
