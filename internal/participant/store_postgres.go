package participant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same store can run
// standalone or inside the extraction transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists participant snapshots in PostgreSQL.
type PostgresStore struct {
	db dbtx
}

// NewPostgres constructs a PostgreSQL-backed participant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

const participantColumns = `
	row_id, participant_id, nhs_number, screening_service_id, version,
	name_prefix, given_name, other_given_names, family_name, previous_family_name,
	date_of_birth, gender,
	address_line_1, address_line_2, address_line_3, address_line_4, address_line_5, postcode,
	telephone_number, mobile_number, email_address, preferred_language, interpreter_required,
	primary_care_provider, primary_care_provider_from_date,
	reason_for_removal, reason_for_removal_from_date,
	service_provider, exception_flag, superseded_by_nhs_number,
	extracted, request_id, record_insert_datetime, record_update_datetime`

func (s *PostgresStore) Append(ctx context.Context, p Participant) (Participant, error) {
	query := `
		INSERT INTO cohort_distribution (
			participant_id, nhs_number, screening_service_id, version,
			name_prefix, given_name, other_given_names, family_name, previous_family_name,
			date_of_birth, gender,
			address_line_1, address_line_2, address_line_3, address_line_4, address_line_5, postcode,
			telephone_number, mobile_number, email_address, preferred_language, interpreter_required,
			primary_care_provider, primary_care_provider_from_date,
			reason_for_removal, reason_for_removal_from_date,
			service_provider, exception_flag, superseded_by_nhs_number,
			extracted, request_id, record_insert_datetime
		)
		SELECT $1, $2, $3,
			COALESCE(MAX(version), 0) + 1,
			$4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26, $27, $28,
			FALSE, NULL, now()
		FROM cohort_distribution
		WHERE nhs_number = $2 AND screening_service_id = $3
		RETURNING row_id, version, record_insert_datetime
	`
	err := s.db.QueryRowContext(ctx, query,
		p.ParticipantID, p.NHSNumber, p.ScreeningServiceID,
		p.NamePrefix, p.GivenName, p.OtherGivenNames, p.FamilyName, p.PreviousFamilyName,
		p.DateOfBirth, p.Gender,
		p.AddressLine1, p.AddressLine2, p.AddressLine3, p.AddressLine4, p.AddressLine5, p.Postcode,
		p.TelephoneNumber, p.MobileNumber, p.EmailAddress, p.PreferredLanguage, p.InterpreterRequired,
		p.PrimaryCareProvider, p.PrimaryCareProviderEffectiveFrom,
		p.ReasonForRemoval, p.ReasonForRemovalEffectiveFrom,
		p.ServiceProvider, p.ExceptionFlag, nullString(p.SupersededByNHSNumber),
	).Scan(&p.RowID, &p.Version, &p.RecordInsertTime)
	if err != nil {
		return Participant{}, fmt.Errorf("append participant: %w", err)
	}
	p.Extracted = false
	p.RequestID = nil
	return p, nil
}

func (s *PostgresStore) LatestCurrent(ctx context.Context, nhsNumber, screeningServiceID string) (Participant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM cohort_distribution
		WHERE nhs_number = $1 AND screening_service_id = $2
		ORDER BY version DESC
		LIMIT 1
	`, participantColumns)
	row := s.db.QueryRowContext(ctx, query, nhsNumber, screeningServiceID)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return Participant{}, ErrNotFound
	}
	if err != nil {
		return Participant{}, fmt.Errorf("latest current participant: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SelectUnextracted(ctx context.Context, limit int, supersededLast bool) ([]Participant, error) {
	// Locking the selected rows keeps concurrent extraction calls from
	// handing out overlapping batches; SKIP LOCKED lets the second caller
	// move on to the next pending rows instead of blocking.
	order := "COALESCE(record_update_datetime, record_insert_datetime) ASC, row_id ASC"
	if supersededLast {
		order = "(superseded_by_nhs_number IS NOT NULL) ASC, " + order
	}
	query := fmt.Sprintf(`
		SELECT %s FROM cohort_distribution
		WHERE extracted = FALSE AND request_id IS NULL
		ORDER BY %s
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, participantColumns, order)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select unextracted participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

func (s *PostgresStore) MarkExtracted(ctx context.Context, rowIDs []int64, requestID uuid.UUID) error {
	if len(rowIDs) == 0 {
		return nil
	}
	query := `
		UPDATE cohort_distribution
		SET extracted = TRUE, request_id = $1, record_update_datetime = now()
		WHERE row_id = ANY($2)
	`
	result, err := s.db.ExecContext(ctx, query, requestID, pq.Array(rowIDs))
	if err != nil {
		return fmt.Errorf("mark participants extracted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark participants extracted: %w", err)
	}
	if affected != int64(len(rowIDs)) {
		return fmt.Errorf("mark participants extracted: expected %d rows, updated %d", len(rowIDs), affected)
	}
	return nil
}

func (s *PostgresStore) ByRequestID(ctx context.Context, requestID uuid.UUID) ([]Participant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM cohort_distribution
		WHERE request_id = $1
		ORDER BY row_id ASC
	`, participantColumns)
	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("participants by request id: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (Participant, error) {
	var p Participant
	var superseded sql.NullString
	var requestID uuid.NullUUID
	var updated sql.NullTime

	err := row.Scan(
		&p.RowID, &p.ParticipantID, &p.NHSNumber, &p.ScreeningServiceID, &p.Version,
		&p.NamePrefix, &p.GivenName, &p.OtherGivenNames, &p.FamilyName, &p.PreviousFamilyName,
		&p.DateOfBirth, &p.Gender,
		&p.AddressLine1, &p.AddressLine2, &p.AddressLine3, &p.AddressLine4, &p.AddressLine5, &p.Postcode,
		&p.TelephoneNumber, &p.MobileNumber, &p.EmailAddress, &p.PreferredLanguage, &p.InterpreterRequired,
		&p.PrimaryCareProvider, &p.PrimaryCareProviderEffectiveFrom,
		&p.ReasonForRemoval, &p.ReasonForRemovalEffectiveFrom,
		&p.ServiceProvider, &p.ExceptionFlag, &superseded,
		&p.Extracted, &requestID, &p.RecordInsertTime, &updated,
	)
	if err != nil {
		return Participant{}, err
	}
	if superseded.Valid {
		p.SupersededByNHSNumber = &superseded.String
	}
	if requestID.Valid {
		rid := requestID.UUID
		p.RequestID = &rid
	}
	if updated.Valid {
		p.RecordUpdateTime = &updated.Time
	}
	return p, nil
}

func collectParticipants(rows *sql.Rows) ([]Participant, error) {
	var participants []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func nullString(value *string) sql.NullString {
	if value == nil || *value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
