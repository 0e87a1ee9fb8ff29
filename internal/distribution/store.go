package distribution

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cohortd/internal/participant"
)

// ErrAuditNotFound is returned when no ledger row exists for a request id.
var ErrAuditNotFound = errors.New("request audit row not found")

// AuditStore persists the extraction ledger.
type AuditStore interface {
	Insert(ctx context.Context, audit RequestAudit) error
	ByID(ctx context.Context, requestID uuid.UUID) (RequestAudit, error)
	Query(ctx context.Context, filter AuditFilter) ([]RequestAudit, error)
	Latest(ctx context.Context) (RequestAudit, error)
}

// Tx runs fn with stores bound to one atomic unit. Selection, marking and
// the audit write of a fresh batch must commit or roll back together.
type Tx interface {
	RunInTx(ctx context.Context, fn func(participants participant.Store, audit AuditStore) error) error
}
