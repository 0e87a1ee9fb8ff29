package exception

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists exception records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed exception store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	query := `
		INSERT INTO validation_exceptions (
			exception_id, nhs_number, rule_id, rule_description,
			fatal, file_name, error_record, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ExceptionID, record.NHSNumber, record.RuleID, record.RuleDescription,
		record.Fatal, record.FileName, record.ErrorRecord, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append exception record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByNHSNumber(ctx context.Context, nhsNumber string) ([]Record, error) {
	query := `
		SELECT exception_id, nhs_number, rule_id, rule_description,
			fatal, file_name, error_record, created_at
		FROM validation_exceptions
		WHERE nhs_number = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, nhsNumber)
	if err != nil {
		return nil, fmt.Errorf("list exception records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.ExceptionID, &record.NHSNumber, &record.RuleID, &record.RuleDescription,
			&record.Fatal, &record.FileName, &record.ErrorRecord, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan exception record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exception records: %w", err)
	}
	return records, nil
}
