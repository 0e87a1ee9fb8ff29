package distribution

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"cohortd/internal/participant"
)

// InMemoryAuditStore keeps ledger rows in process memory.
type InMemoryAuditStore struct {
	mu   sync.RWMutex
	rows []RequestAudit
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{}
}

func (s *InMemoryAuditStore) Insert(_ context.Context, audit RequestAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, audit)
	return nil
}

func (s *InMemoryAuditStore) ByID(_ context.Context, requestID uuid.UUID) (RequestAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.RequestID == requestID {
			return row, nil
		}
	}
	return RequestAudit{}, ErrAuditNotFound
}

func (s *InMemoryAuditStore) Query(_ context.Context, filter AuditFilter) ([]RequestAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []RequestAudit
	for _, row := range s.rows {
		if filter.RequestID != nil && row.RequestID != *filter.RequestID {
			continue
		}
		if filter.StatusCode != nil && row.StatusCode != *filter.StatusCode {
			continue
		}
		if filter.DateFrom != nil && row.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		matched = append(matched, row)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *InMemoryAuditStore) Latest(_ context.Context) (RequestAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *RequestAudit
	for i := range s.rows {
		if latest == nil || s.rows[i].CreatedAt.After(latest.CreatedAt) {
			latest = &s.rows[i]
		}
	}
	if latest == nil {
		return RequestAudit{}, ErrAuditNotFound
	}
	return *latest, nil
}

// InMemoryTx serializes extraction units over the in-memory stores with one
// lock, giving the same no-overlap guarantee the postgres transaction does.
type InMemoryTx struct {
	mu           sync.Mutex
	participants participant.Store
	audit        AuditStore
}

func NewInMemoryTx(participants participant.Store, audit AuditStore) *InMemoryTx {
	return &InMemoryTx{participants: participants, audit: audit}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(participants participant.Store, audit AuditStore) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.participants, t.audit)
}
