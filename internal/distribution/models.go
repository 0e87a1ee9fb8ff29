package distribution

import (
	"time"

	"github.com/google/uuid"

	"cohortd/internal/participant"
)

// Audit status codes the ledger accepts. StatusSuccess is the only value
// this service writes; the others arrive through external status updates.
const (
	StatusSuccess       = 200
	StatusNoContent     = 204
	StatusInternalError = 500
)

// ValidAuditStatus reports whether code is one of the accepted audit
// statuses.
func ValidAuditStatus(code int) bool {
	switch code {
	case StatusSuccess, StatusNoContent, StatusInternalError:
		return true
	}
	return false
}

// RequestAudit is one row of the extraction ledger: a single extraction
// attempt that selected a new batch. Rows are written once and never
// mutated by this service.
type RequestAudit struct {
	RequestID  uuid.UUID `json:"requestId"`
	StatusCode int       `json:"statusCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuditFilter narrows an audit query. Nil fields match everything.
type AuditFilter struct {
	RequestID  *uuid.UUID
	StatusCode *int
	DateFrom   *time.Time
}

// ExtractRequest is one poll from the downstream consumer.
type ExtractRequest struct {
	// RequestID, when set and known to the ledger, replays the batch that
	// was served under it.
	RequestID *uuid.UUID
	// RowCount is clamped to the service's configured maximum.
	RowCount int
	// SupersededLast sorts rows superseded by an identity change after
	// current rows within the batch.
	SupersededLast bool
}

// ExtractOutcome distinguishes how an extraction call was answered.
type ExtractOutcome int

const (
	// OutcomeBatch: a fresh batch was selected, marked and audited.
	OutcomeBatch ExtractOutcome = iota
	// OutcomeReplay: the rows previously served under the request id were
	// re-derived without side effects.
	OutcomeReplay
	// OutcomeEmpty: nothing is pending; explicitly not an error.
	OutcomeEmpty
)

// ExtractResult carries the batch and how it was produced.
type ExtractResult struct {
	Outcome      ExtractOutcome
	RequestID    uuid.UUID
	Participants []participant.Participant
}

// Delta is one normalized participant change handed over by the upstream
// ingestion pipeline together with its source-file context.
type Delta struct {
	Participant      participant.Participant
	Workflow         participant.Workflow
	ScreeningService string
	FileName         string
}

// DistributeResult reports what happened to one ingested delta.
type DistributeResult struct {
	Participant   participant.Participant
	ExceptionFlag bool
}
