package exception

import "context"

// Store persists exception records. Records are append-only.
type Store interface {
	Append(ctx context.Context, record Record) error
	ListByNHSNumber(ctx context.Context, nhsNumber string) ([]Record, error)
}
