package participant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no row exists for the requested identity.
var ErrNotFound = errors.New("participant not found")

// Store persists participant snapshots. Implementations must keep the
// append-only property: Append never mutates an existing version.
type Store interface {
	// Append inserts a new snapshot as the next version for the
	// participant's (NHS number, screening service) identity and returns
	// the stored row. Prior versions remain untouched.
	Append(ctx context.Context, p Participant) (Participant, error)

	// LatestCurrent returns the highest-version snapshot for the identity,
	// or ErrNotFound when the participant has never been distributed.
	LatestCurrent(ctx context.Context, nhsNumber, screeningServiceID string) (Participant, error)

	// SelectUnextracted returns up to limit undistributed current rows
	// ordered by effective time ascending. When supersededLast is set, rows
	// carrying a superseded-by NHS number sort after current rows.
	SelectUnextracted(ctx context.Context, limit int, supersededLast bool) ([]Participant, error)

	// MarkExtracted stamps the given rows with the request id and flips
	// their extracted flag.
	MarkExtracted(ctx context.Context, rowIDs []int64, requestID uuid.UUID) error

	// ByRequestID returns every row previously served under the request id,
	// in the order they were selected.
	ByRequestID(ctx context.Context, requestID uuid.UUID) ([]Participant, error)
}
