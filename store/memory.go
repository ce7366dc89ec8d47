package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mutex   sync.RWMutex
	entries map[string]*Snapshot
}

var _ Store = (*memoryStore)(nil)

func (s *memoryStore) Get(_ context.Context, key string) (*Snapshot, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snap, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return snap, true, nil
}

func (s *memoryStore) Put(_ context.Context, key string, snap *Snapshot) error {
	s.mutex.Lock()
	s.entries[key] = snap
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mutex.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mutex.Unlock()
	return ok, nil
}

func (s *memoryStore) Len(_ context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries), nil
}

type memoryStorage struct {
	mutex  sync.RWMutex
	stores map[string]*memoryStore
}

var _ Storage = (*memoryStorage)(nil)

// NewMemory returns an in-process Storage implementation. Stores removed
// while a handle is still held stay writable through that handle, but the
// writes land on an orphaned container and are never visible again.
func NewMemory() Storage {
	return &memoryStorage{stores: make(map[string]*memoryStore)}
}

func (m *memoryStorage) Open(_ context.Context, name string) (Store, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.stores[name]
	if !ok {
		s = &memoryStore{entries: make(map[string]*Snapshot)}
		m.stores[name] = s
	}
	return s, nil
}

func (m *memoryStorage) Names(_ context.Context) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	return names, nil
}

func (m *memoryStorage) Has(_ context.Context, name string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.stores[name]
	return ok, nil
}

func (m *memoryStorage) Remove(_ context.Context, name string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.stores[name]
	if ok {
		delete(m.stores, name)
	}
	return ok, nil
}

func (m *memoryStorage) Close() error {
	m.mutex.Lock()
	m.stores = make(map[string]*memoryStore)
	m.mutex.Unlock()
	return nil
}
