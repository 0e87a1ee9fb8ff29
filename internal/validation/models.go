package validation

// Rule enumerates the transition rules the validator can raise. The set is
// closed so every outcome is exhaustively testable.
type Rule string

const (
	// RuleParticipantMustAlreadyExist fires when an update-style workflow
	// arrives for a subject with no distributed history.
	RuleParticipantMustAlreadyExist Rule = "ParticipantMustAlreadyExist"
	// RuleParticipantMustNotExist fires when an add-style workflow arrives
	// for a subject that already has a distributed record.
	RuleParticipantMustNotExist Rule = "ParticipantMustNotExist"
)

// Classification is the validator's verdict on a proposed transition.
type Classification int

const (
	// ClassificationValid: persist the candidate as-is.
	ClassificationValid Classification = iota
	// ClassificationNonFatal: persist the candidate with its exception
	// flag set.
	ClassificationNonFatal
	// ClassificationFatal: reject persistence entirely.
	ClassificationFatal
)

// Violation records one rule the candidate broke.
type Violation struct {
	Rule        Rule
	Fatal       bool
	Description string
}

// Result is the classified outcome plus every violation observed.
type Result struct {
	Classification Classification
	Violations     []Violation
}
