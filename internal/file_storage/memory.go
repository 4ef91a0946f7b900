package filestorage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	down    bool
}

type memoryObject struct {
	data []byte
	meta Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// SetUnavailable makes every call fail with ErrUnavailable until reset.
func (s *MemoryStore) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down {
		return nil, unavailable("get", key, errors.New("store is down"))
	}

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, meta Meta) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return unavailable("put", key, errors.New("store is down"))
	}

	s.objects[key] = memoryObject{data: append([]byte(nil), data...), meta: meta}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return unavailable("delete", key, errors.New("store is down"))
	}

	delete(s.objects, key)
	return nil
}

// Meta returns the metadata stored with key.
func (s *MemoryStore) Meta(key string) (Meta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.meta, ok
}

// Corrupt overwrites an object in place, bypassing Put.
func (s *MemoryStore) Corrupt(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.objects[key]
	obj.data = append([]byte(nil), data...)
	s.objects[key] = obj
}
