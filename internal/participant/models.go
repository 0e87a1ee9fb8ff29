package participant

import (
	"time"

	"github.com/google/uuid"
)

// Workflow distinguishes how an ingested delta intends to change the cohort.
type Workflow string

const (
	WorkflowAdd    Workflow = "add"
	WorkflowUpdate Workflow = "update"
)

// IsValid checks if the workflow is one of the supported enum values.
func (w Workflow) IsValid() bool {
	return w == WorkflowAdd || w == WorkflowUpdate
}

// Participant is one distributed snapshot of a screening participant. Rows
// are append-only: a new version supersedes the previous one, history is
// never overwritten or deleted.
type Participant struct {
	RowID              int64
	ParticipantID      string
	NHSNumber          string
	ScreeningServiceID string
	Version            int

	NamePrefix         string
	GivenName          string
	OtherGivenNames    string
	FamilyName         string
	PreviousFamilyName string
	DateOfBirth        string
	Gender             string

	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	AddressLine4 string
	AddressLine5 string
	Postcode     string

	TelephoneNumber     string
	MobileNumber        string
	EmailAddress        string
	PreferredLanguage   string
	InterpreterRequired bool

	PrimaryCareProvider              string
	PrimaryCareProviderEffectiveFrom string
	ReasonForRemoval                 string
	ReasonForRemovalEffectiveFrom    string

	ServiceProvider       string
	ExceptionFlag         bool
	SupersededByNHSNumber *string

	Extracted bool
	RequestID *uuid.UUID

	RecordInsertTime time.Time
	RecordUpdateTime *time.Time
}

// EffectiveTime is the instant used to order rows within a batch.
func (p Participant) EffectiveTime() time.Time {
	if p.RecordUpdateTime != nil {
		return *p.RecordUpdateTime
	}
	return p.RecordInsertTime
}

// Superseded reports whether this snapshot has been replaced under a new
// NHS number following an identity change.
func (p Participant) Superseded() bool {
	return p.SupersededByNHSNumber != nil && *p.SupersededByNHSNumber != ""
}
