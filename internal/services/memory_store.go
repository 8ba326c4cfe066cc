package services

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process. A single writer lock serializes
// every Update, which also serializes vault arithmetic.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) read(_ context.Context, key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, errKeyNotFound
	}
	return v, nil
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newKVTx(ctx, false, s.read)
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.writes {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newKVTx(ctx, true, s.read))
}

func (s *MemoryStore) Close() error {
	return nil
}
