package transform

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresLookups answers lookup queries from the reference tables.
type PostgresLookups struct {
	db *sql.DB
}

func NewPostgresLookups(db *sql.DB) *PostgresLookups {
	return &PostgresLookups{db: db}
}

func (l *PostgresLookups) ValidOutcode(ctx context.Context, outcode string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM outcode_mapping_lkp WHERE outcode = $1)`, outcode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("validate outcode: %w", err)
	}
	return exists, nil
}

func (l *PostgresLookups) BSOCodeByOutcode(ctx context.Context, outcode string) (string, error) {
	var bso string
	err := l.db.QueryRowContext(ctx,
		`SELECT bso_code FROM outcode_mapping_lkp WHERE outcode = $1`, outcode,
	).Scan(&bso)
	if err == sql.ErrNoRows {
		return "", ErrLookupMiss
	}
	if err != nil {
		return "", fmt.Errorf("bso code by outcode: %w", err)
	}
	return bso, nil
}

func (l *PostgresLookups) BSOCodeByProvider(ctx context.Context, gpPracticeCode string) (string, error) {
	var bso string
	err := l.db.QueryRowContext(ctx,
		`SELECT bso_code FROM gp_practice_lkp WHERE gp_practice_code = $1`, gpPracticeCode,
	).Scan(&bso)
	if err == sql.ErrNoRows {
		return "", ErrLookupMiss
	}
	if err != nil {
		return "", fmt.Errorf("bso code by gp practice: %w", err)
	}
	return bso, nil
}
