package cache

import (
	"context"
	"sync"
)

// MemoryRecordStore keeps records in process memory. Used for local runs
// and tests; contents are lost on restart.
type MemoryRecordStore struct {
	mu    sync.RWMutex
	items map[string]Record
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		items: make(map[string]Record),
	}
}

func (s *MemoryRecordStore) Get(ctx context.Context, id string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	s.mu.RLock()
	rec, ok := s.items[id]
	s.mu.RUnlock()

	return rec, ok, nil
}

func (s *MemoryRecordStore) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.items[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryRecordStore) PutIfAbsent(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.ID]; exists {
		return ErrRecordExists
	}
	s.items[rec.ID] = rec
	return nil
}

// Len returns the number of stored records.
func (s *MemoryRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
