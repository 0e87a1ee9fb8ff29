package validation

import (
	"context"
	"encoding/json"

	"cohortd/internal/exception"
	"cohortd/internal/participant"
)

// Service compares a candidate record against the latest distributed record
// for the same subject and classifies the transition. It is a pure function
// of its inputs apart from emitting exception records.
type Service struct {
	exceptions *exception.Service
}

func NewService(exceptions *exception.Service) *Service {
	return &Service{exceptions: exceptions}
}

// Classify validates the candidate against prior history. existing is nil
// when the subject has never been distributed. Every violation, fatal or
// not, is written to the exception trail; fatal verdicts block persistence
// at the caller.
func (s *Service) Classify(ctx context.Context, existing *participant.Participant, candidate participant.Participant, workflow participant.Workflow, fileName string) Result {
	var violations []Violation

	exists := existing != nil && existing.NHSNumber != ""

	switch workflow {
	case participant.WorkflowUpdate:
		if !exists {
			violations = append(violations, Violation{
				Rule:        RuleParticipantMustAlreadyExist,
				Fatal:       true,
				Description: "an update was received for a participant with no distributed record",
			})
		}
	case participant.WorkflowAdd:
		if exists {
			violations = append(violations, Violation{
				Rule:        RuleParticipantMustNotExist,
				Fatal:       true,
				Description: "an add was received for a participant that is already distributed",
			})
		}
	}

	result := Result{Classification: ClassificationValid, Violations: violations}
	for _, violation := range violations {
		s.raise(ctx, candidate, violation, fileName)
		if violation.Fatal {
			result.Classification = ClassificationFatal
		} else if result.Classification == ClassificationValid {
			result.Classification = ClassificationNonFatal
		}
	}
	return result
}

func (s *Service) raise(ctx context.Context, candidate participant.Participant, violation Violation, fileName string) {
	raw, _ := json.Marshal(candidate)
	s.exceptions.Raise(ctx, exception.Record{
		NHSNumber:       candidate.NHSNumber,
		RuleID:          string(violation.Rule),
		RuleDescription: violation.Description,
		Fatal:           violation.Fatal,
		FileName:        fileName,
		ErrorRecord:     string(raw),
	})
}
