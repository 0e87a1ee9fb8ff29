package main

import (
	"context"
	"database/sql"
	"time"

	"cohortd/internal/distribution"
	"cohortd/internal/participant"
	dErrors "cohortd/pkg/domain-errors"
)

const defaultExtractionTxTimeout = 10 * time.Second

// distributionPostgresTx runs the select-mark-audit unit of work inside one
// serializable transaction so concurrent polls can never share a row.
type distributionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDistributionPostgresTx(db *sql.DB, timeout time.Duration) *distributionPostgresTx {
	return &distributionPostgresTx{db: db, timeout: timeout}
}

func (t *distributionPostgresTx) RunInTx(ctx context.Context, fn func(participants participant.Store, audit distribution.AuditStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultExtractionTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(participant.NewPostgresTx(tx), distribution.NewPostgresAuditTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
