package exception_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohortd/internal/exception"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRaiseFillsIdentityAndTimestamp(t *testing.T) {
	store := exception.NewInMemoryStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := exception.NewService(store, discardLogger(), nil, exception.WithClock(func() time.Time { return fixed }))

	svc.Raise(context.Background(), exception.Record{
		NHSNumber: "9434765919",
		RuleID:    "AllocationRequestIncomplete",
	})

	records := store.All()
	require.Len(t, records, 1)
	assert.NotEqual(t, uuid.Nil, records[0].ExceptionID)
	assert.Equal(t, fixed, records[0].CreatedAt)
}

func TestRaiseKeepsCallerSuppliedFields(t *testing.T) {
	store := exception.NewInMemoryStore()
	svc := exception.NewService(store, discardLogger(), nil)

	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.Raise(context.Background(), exception.Record{
		ExceptionID: id,
		NHSNumber:   "9434765919",
		RuleID:      "ReasonForRemovalNotResolved",
		CreatedAt:   created,
	})

	records := store.All()
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ExceptionID)
	assert.Equal(t, created, records[0].CreatedAt)
}

type failingStore struct{}

func (failingStore) Append(context.Context, exception.Record) error {
	return errors.New("disk full")
}

func (failingStore) ListByNHSNumber(context.Context, string) ([]exception.Record, error) {
	return nil, nil
}

func TestRaiseSwallowsStoreFailure(t *testing.T) {
	svc := exception.NewService(failingStore{}, discardLogger(), nil)

	// Must not panic or propagate; the original business error owns the call.
	svc.Raise(context.Background(), exception.Record{NHSNumber: "9434765919", RuleID: "X"})
}

func TestListByNHSNumberFiltersRecords(t *testing.T) {
	store := exception.NewInMemoryStore()
	svc := exception.NewService(store, discardLogger(), nil)

	svc.Raise(context.Background(), exception.Record{NHSNumber: "9434765919", RuleID: "A"})
	svc.Raise(context.Background(), exception.Record{NHSNumber: "9434765870", RuleID: "B"})
	svc.Raise(context.Background(), exception.Record{NHSNumber: "9434765919", RuleID: "C"})

	records, err := store.ListByNHSNumber(context.Background(), "9434765919")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].RuleID)
	assert.Equal(t, "C", records[1].RuleID)
}
