package exception

import (
	"time"

	"github.com/google/uuid"
)

// Record captures one rule violation or system error raised while processing
// a participant. The NHS number lives only in its dedicated identity field;
// messages and descriptions must never embed it.
type Record struct {
	ExceptionID     uuid.UUID
	NHSNumber       string
	RuleID          string
	RuleDescription string
	Fatal           bool
	FileName        string
	ErrorRecord     string
	CreatedAt       time.Time
}
