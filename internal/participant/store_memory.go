package participant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps participant snapshots in process memory. Used by unit
// tests and local development; the postgres store is the production path.
type InMemoryStore struct {
	mu     sync.RWMutex
	rows   []Participant
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, p Participant) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := 0
	for _, row := range s.rows {
		if row.NHSNumber == p.NHSNumber && row.ScreeningServiceID == p.ScreeningServiceID && row.Version > version {
			version = row.Version
		}
	}

	p.RowID = s.nextID
	p.Version = version + 1
	if p.RecordInsertTime.IsZero() {
		p.RecordInsertTime = time.Now()
	}
	s.nextID++
	s.rows = append(s.rows, p)
	return p, nil
}

func (s *InMemoryStore) LatestCurrent(_ context.Context, nhsNumber, screeningServiceID string) (Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Participant
	for i := range s.rows {
		row := &s.rows[i]
		if row.NHSNumber != nhsNumber || row.ScreeningServiceID != screeningServiceID {
			continue
		}
		if latest == nil || row.Version > latest.Version {
			latest = row
		}
	}
	if latest == nil {
		return Participant{}, ErrNotFound
	}
	return *latest, nil
}

func (s *InMemoryStore) SelectUnextracted(_ context.Context, limit int, supersededLast bool) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []Participant
	for _, row := range s.rows {
		if !row.Extracted && row.RequestID == nil {
			pending = append(pending, row)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if supersededLast && pending[i].Superseded() != pending[j].Superseded() {
			return !pending[i].Superseded()
		}
		return pending[i].EffectiveTime().Before(pending[j].EffectiveTime())
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *InMemoryStore) MarkExtracted(_ context.Context, rowIDs []int64, requestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		ids[id] = struct{}{}
	}
	for i := range s.rows {
		if _, ok := ids[s.rows[i].RowID]; ok {
			s.rows[i].Extracted = true
			rid := requestID
			s.rows[i].RequestID = &rid
		}
	}
	return nil
}

func (s *InMemoryStore) ByRequestID(_ context.Context, requestID uuid.UUID) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Participant
	for _, row := range s.rows {
		if row.RequestID != nil && *row.RequestID == requestID {
			matched = append(matched, row)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RowID < matched[j].RowID
	})
	return matched, nil
}
