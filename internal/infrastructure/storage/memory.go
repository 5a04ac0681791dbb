package storage

import (
	"context"
	"sync"

	"github.com/nutriweek/backend/internal/domain"
)

type memoryObject struct {
	data []byte
	meta domain.ObjectMeta
}

// MemoryStore is an in-process ObjectStore used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, meta domain.ObjectMeta) error {
	if err := validateKey(key); err != nil {
		return err
	}

	stored := memoryObject{
		data: append([]byte(nil), data...),
		meta: make(domain.ObjectMeta, len(meta)),
	}
	for k, v := range meta {
		stored.meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *MemoryStore) Head(_ context.Context, key string) (*domain.ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, nil
	}

	meta := make(domain.ObjectMeta, len(obj.meta))
	for k, v := range obj.meta {
		meta[k] = v
	}
	return &domain.ObjectInfo{Size: int64(len(obj.data)), Meta: meta}, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
