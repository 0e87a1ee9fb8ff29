package transform

import "cohortd/internal/participant"

// Rule identifies which reason-for-removal rule fired. The rule space is
// closed and enumerable; no runtime string dispatch.
type Rule int

const (
	// RuleNone: the participant carried no resolvable removal reason.
	RuleNone Rule = iota
	// RuleDummyProviderFromOutcode: removal reason with a valid outcode;
	// the dummy provider is built from the outcode's BSO code.
	RuleDummyProviderFromOutcode
	// RuleDummyProviderFromGPPractice: no valid outcode, but the existing
	// provider resolves through the GP practice lookup.
	RuleDummyProviderFromGPPractice
	// RuleNotRegisteredSentinel: the existing provider already carries the
	// not-registered sentinel; the record is left unchanged.
	RuleNotRegisteredSentinel
	// RuleNotRegisteredNoProvider: no existing provider at all; the record
	// is left unchanged.
	RuleNotRegisteredNoProvider
	// RuleUnresolved: a removal reason was present but no rule applied.
	RuleUnresolved
)

// Outcome is the terminal state of one transformation pass.
type Outcome int

const (
	OutcomeTransformed Outcome = iota
	OutcomeUnchanged
)

// Result pairs the (possibly rewritten) participant with what happened.
type Result struct {
	Participant participant.Participant
	Outcome     Outcome
	Rule        Rule
}

// dummyProviderPrefix marks a participant as not registered with a GP.
const dummyProviderPrefix = "ZZZ"

// removal reasons that require a dummy GP practice code.
const (
	reasonRemovedDeathRegistration = "RDR"
	reasonRemovedDeathInformal     = "RDI"
	reasonRemovedPatientRequest    = "RPR"
)

func requiresDummyProvider(reason string) bool {
	switch reason {
	case reasonRemovedDeathRegistration, reasonRemovedDeathInformal, reasonRemovedPatientRequest:
		return true
	}
	return false
}
