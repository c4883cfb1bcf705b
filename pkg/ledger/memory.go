package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorage keeps the chain in memory. Suited to tests and ephemeral
// runs; records are lost on process exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append implements Storage.
func (s *MemoryStorage) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.records); n > 0 && s.records[n-1].Seq >= rec.Seq {
		return fmt.Errorf("duplicate ledger seq %d", rec.Seq)
	}
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

// Last implements Storage.
func (s *MemoryStorage) Last(context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, nil
	}
	cp := *s.records[len(s.records)-1]
	return &cp, nil
}

// Walk implements Storage.
func (s *MemoryStorage) Walk(_ context.Context, fn func(*Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		cp := *rec
		if err := fn(&cp); err != nil {
			return err
		}
	}
	return nil
}

// Corrupt overwrites the payload of the record at seq. Test helper for
// exercising chain verification.
func (s *MemoryStorage) Corrupt(seq int64, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Seq == seq {
			rec.Payload = payload
			return
		}
	}
}

// Close implements Storage.
func (s *MemoryStorage) Close() error { return nil }
