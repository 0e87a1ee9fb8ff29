package allocation

import (
	"context"
	"strings"

	"cohortd/internal/exception"
	"cohortd/internal/platform/metrics"
	dErrors "cohortd/pkg/domain-errors"
)

// Service allocates a serving screening provider by postcode prefix.
type Service struct {
	source     Source
	exceptions *exception.Service
	metrics    *metrics.Metrics
}

func NewService(source Source, exceptions *exception.Service, m *metrics.Metrics) *Service {
	return &Service{source: source, exceptions: exceptions, metrics: m}
}

// Allocate returns the provider code serving the participant's postcode.
// Missing inputs or an unavailable configuration source are bad requests and
// raise an exception record attributed to the subject; a postcode with no
// configured region is not an error and resolves to DefaultServiceProvider.
func (s *Service) Allocate(ctx context.Context, req Request) (string, error) {
	if req.NHSNumber == "" || req.Postcode == "" || req.ScreeningService == "" {
		err := dErrors.New(dErrors.CodeBadRequest, "nhs number, postcode and screening service are all required")
		s.raise(ctx, req.NHSNumber, "AllocationRequestIncomplete", "one or more required allocation parameters is missing", err)
		s.count("bad_request")
		return "", err
	}

	entries, err := s.source.Entries(ctx)
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeBadRequest, "allocation configuration unavailable")
		s.raise(ctx, req.NHSNumber, "AllocationConfigUnavailable", "allocation configuration could not be loaded", wrapped)
		s.count("config_error")
		return "", wrapped
	}

	provider := bestMatch(entries, req.Postcode, req.ScreeningService)
	if provider == DefaultServiceProvider {
		s.count("default")
	} else {
		s.count("matched")
	}
	return provider, nil
}

// bestMatch selects the entry with the longest case-insensitive prefix of the
// postcode among entries for the screening service. Ties on prefix length
// keep the first-listed entry. No match yields the default sentinel.
func bestMatch(entries []Entry, postcode, screeningService string) string {
	provider := DefaultServiceProvider
	bestLen := -1
	for _, entry := range entries {
		if !strings.EqualFold(entry.ScreeningService, screeningService) {
			continue
		}
		if len(entry.Prefix) <= bestLen {
			continue
		}
		if hasPrefixFold(postcode, entry.Prefix) {
			provider = entry.ServiceProvider
			bestLen = len(entry.Prefix)
		}
	}
	return provider
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func (s *Service) raise(ctx context.Context, nhsNumber, ruleID, description string, cause error) {
	s.exceptions.Raise(ctx, exception.Record{
		NHSNumber:       nhsNumber,
		RuleID:          ruleID,
		RuleDescription: description,
		Fatal:           false,
		ErrorRecord:     cause.Error(),
	})
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.Allocations.WithLabelValues(outcome).Inc()
	}
}
