package blobstore

import (
	"context"
	"sync"

	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

// memoryStore backs tests; it is registered like any other store so service
// tests exercise the same factory path as production code.
type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		_ = args
		return NewMemory(), nil
	})
}

func NewMemory() Store {
	return &memoryStore{blobs: make(map[string][]byte)}
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte) error {
	_ = ctx
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.blobs[key] = buf
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, appErr.ErrNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}
