package distribution

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresAuditStore persists ledger rows in PostgreSQL.
type PostgresAuditStore struct {
	db dbtx
}

// NewPostgresAudit constructs a PostgreSQL-backed audit store.
func NewPostgresAudit(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

// NewPostgresAuditTx constructs a store bound to an open transaction.
func NewPostgresAuditTx(tx *sql.Tx) *PostgresAuditStore {
	return &PostgresAuditStore{db: tx}
}

func (s *PostgresAuditStore) Insert(ctx context.Context, audit RequestAudit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_audit (request_id, status_code, created_at) VALUES ($1, $2, $3)`,
		audit.RequestID, audit.StatusCode, audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request audit: %w", err)
	}
	return nil
}

func (s *PostgresAuditStore) ByID(ctx context.Context, requestID uuid.UUID) (RequestAudit, error) {
	var audit RequestAudit
	err := s.db.QueryRowContext(ctx,
		`SELECT request_id, status_code, created_at FROM request_audit WHERE request_id = $1`,
		requestID,
	).Scan(&audit.RequestID, &audit.StatusCode, &audit.CreatedAt)
	if err == sql.ErrNoRows {
		return RequestAudit{}, ErrAuditNotFound
	}
	if err != nil {
		return RequestAudit{}, fmt.Errorf("request audit by id: %w", err)
	}
	return audit, nil
}

func (s *PostgresAuditStore) Query(ctx context.Context, filter AuditFilter) ([]RequestAudit, error) {
	query := `SELECT request_id, status_code, created_at FROM request_audit WHERE 1=1`
	var args []any
	if filter.RequestID != nil {
		args = append(args, *filter.RequestID)
		query += fmt.Sprintf(" AND request_id = $%d", len(args))
	}
	if filter.StatusCode != nil {
		args = append(args, *filter.StatusCode)
		query += fmt.Sprintf(" AND status_code = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request audit: %w", err)
	}
	defer rows.Close()

	var audits []RequestAudit
	for rows.Next() {
		var audit RequestAudit
		if err := rows.Scan(&audit.RequestID, &audit.StatusCode, &audit.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request audit: %w", err)
		}
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate request audit: %w", err)
	}
	return audits, nil
}

func (s *PostgresAuditStore) Latest(ctx context.Context) (RequestAudit, error) {
	var audit RequestAudit
	err := s.db.QueryRowContext(ctx,
		`SELECT request_id, status_code, created_at FROM request_audit ORDER BY created_at DESC LIMIT 1`,
	).Scan(&audit.RequestID, &audit.StatusCode, &audit.CreatedAt)
	if err == sql.ErrNoRows {
		return RequestAudit{}, ErrAuditNotFound
	}
	if err != nil {
		return RequestAudit{}, fmt.Errorf("latest request audit: %w", err)
	}
	return audit, nil
}
