package localstore

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, profile, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.profiles[profile][key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(value), true, nil
}

func (s *MemoryStore) Set(_ context.Context, profile, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.profiles[profile]
	if !ok {
		items = make(map[string][]byte)
		s.profiles[profile] = items
	}
	items[key] = cloneBytes(value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, profile, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.profiles[profile]
	if !ok {
		return nil
	}
	delete(items, key)
	if len(items) == 0 {
		delete(s.profiles, profile)
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, profile string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.profiles[profile]))
	for key := range s.profiles[profile] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	cloned := make([]byte, len(value))
	copy(cloned, value)
	return cloned
}
