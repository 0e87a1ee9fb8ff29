package exception

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) ListByNHSNumber(_ context.Context, nhsNumber string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Record
	for _, record := range s.records {
		if record.NHSNumber == nhsNumber {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// All returns every record in insertion order. Test helper.
func (s *InMemoryStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.records...)
}
