package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory blob store for tests and the memory backend.
// It satisfies the same blob surface as SQLiteRepository.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string]string{}}
}

func (s *MemoryStore) GetBlob(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.blobs[key]
	if !ok {
		return "", ErrBlobNotFound
	}
	return value, nil
}

func (s *MemoryStore) PutBlob(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = value
	return nil
}

func (s *MemoryStore) DeleteBlob(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
