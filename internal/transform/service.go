package transform

import (
	"context"
	"encoding/json"
	"strings"

	"cohortd/internal/exception"
	"cohortd/internal/participant"
	dErrors "cohortd/pkg/domain-errors"
)

// Rule IDs recorded on the exception trail. The numeric prefixes are part of
// the downstream contract and must not change.
const (
	ruleIDNotRegisteredSentinel   = "3.ParticipantNotRegisteredToGPWithReasonForRemoval"
	ruleIDNotRegisteredNoProvider = "4.ParticipantNotRegisteredToGPWithReasonForRemoval"
	ruleIDUnresolvedRemoval       = "ReasonForRemovalNotResolved"
	ruleIDLookupUnavailable       = "TransformationLookupUnavailable"
)

// Service normalizes reason-for-removal semantics before a participant may
// be distributed. It is a pure function of its inputs apart from emitting
// exception records.
type Service struct {
	lookups    LookupFacade
	exceptions *exception.Service
}

func NewService(lookups LookupFacade, exceptions *exception.Service) *Service {
	return &Service{lookups: lookups, exceptions: exceptions}
}

// Apply runs the ordered, mutually exclusive rule set against one
// participant. existingProvider is the primary care provider on the latest
// distributed record for the same subject, empty when there is none.
// fileName attributes any raised exception to its source file.
func (s *Service) Apply(ctx context.Context, p participant.Participant, existingProvider, fileName string) (Result, error) {
	if !requiresDummyProvider(p.ReasonForRemoval) {
		return Result{Participant: p, Outcome: OutcomeUnchanged, Rule: RuleNone}, nil
	}

	outcode := Outcode(p.Postcode)
	validOutcode := false
	if outcode != "" {
		var err error
		validOutcode, err = s.lookups.ValidOutcode(ctx, outcode)
		if err != nil {
			s.raise(ctx, p, ruleIDLookupUnavailable, "outcode lookup failed while resolving a removal reason", fileName)
			return Result{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "outcode lookup unavailable")
		}
	}

	switch {
	case validOutcode:
		bso, err := s.lookups.BSOCodeByOutcode(ctx, outcode)
		if err != nil {
			s.raise(ctx, p, ruleIDLookupUnavailable, "BSO lookup by outcode failed while resolving a removal reason", fileName)
			return Result{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "BSO lookup by outcode unavailable")
		}
		return Result{Participant: resolveDummyProvider(p, bso), Outcome: OutcomeTransformed, Rule: RuleDummyProviderFromOutcode}, nil

	case p.ReasonForRemoval == reasonRemovedDeathRegistration && existingProvider != "" && !strings.HasPrefix(existingProvider, dummyProviderPrefix):
		bso, err := s.lookups.BSOCodeByProvider(ctx, existingProvider)
		if err != nil {
			s.raise(ctx, p, ruleIDLookupUnavailable, "BSO lookup by GP practice failed while resolving a removal reason", fileName)
			return Result{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "BSO lookup by GP practice unavailable")
		}
		return Result{Participant: resolveDummyProvider(p, bso), Outcome: OutcomeTransformed, Rule: RuleDummyProviderFromGPPractice}, nil

	case p.ReasonForRemoval == reasonRemovedDeathRegistration && strings.HasPrefix(existingProvider, dummyProviderPrefix):
		s.raise(ctx, p, ruleIDNotRegisteredSentinel, "participant is not registered with a GP and carries a removal reason", fileName)
		return Result{Participant: p, Outcome: OutcomeUnchanged, Rule: RuleNotRegisteredSentinel}, nil

	case p.ReasonForRemoval == reasonRemovedDeathRegistration && existingProvider == "":
		s.raise(ctx, p, ruleIDNotRegisteredNoProvider, "participant has no known GP practice and carries a removal reason", fileName)
		return Result{Participant: p, Outcome: OutcomeUnchanged, Rule: RuleNotRegisteredNoProvider}, nil

	default:
		s.raise(ctx, p, ruleIDUnresolvedRemoval, "removal reason could not be resolved to a dummy GP practice", fileName)
		return Result{Participant: p, Outcome: OutcomeUnchanged, Rule: RuleUnresolved}, nil
	}
}

// resolveDummyProvider rewrites the record per rules 1 and 2: the removal
// effective date moves onto the provider, and the removal reason is cleared.
func resolveDummyProvider(p participant.Participant, bsoCode string) participant.Participant {
	p.PrimaryCareProvider = dummyProviderPrefix + bsoCode
	p.PrimaryCareProviderEffectiveFrom = p.ReasonForRemovalEffectiveFrom
	p.ReasonForRemoval = ""
	p.ReasonForRemovalEffectiveFrom = ""
	return p
}

func (s *Service) raise(ctx context.Context, p participant.Participant, ruleID, description, fileName string) {
	raw, _ := json.Marshal(p)
	s.exceptions.Raise(ctx, exception.Record{
		NHSNumber:       p.NHSNumber,
		RuleID:          ruleID,
		RuleDescription: description,
		Fatal:           false,
		FileName:        fileName,
		ErrorRecord:     string(raw),
	})
}
