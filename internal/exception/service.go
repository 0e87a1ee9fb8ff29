package exception

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cohortd/internal/platform/metrics"
)

// Service is the single sink every failure path reports through, so each
// failed operation produces exactly one exception record.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the timestamp source for testability.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, metrics: m, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Raise persists one exception record. A failure to persist is logged and
// swallowed: exception logging must never mask the original business error.
func (s *Service) Raise(ctx context.Context, record Record) {
	if record.ExceptionID == uuid.Nil {
		record.ExceptionID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	if err := s.store.Append(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist exception record",
			"rule_id", record.RuleID,
			"fatal", record.Fatal,
			"error", err.Error(),
		)
		return
	}

	s.logger.WarnContext(ctx, "validation exception raised",
		"rule_id", record.RuleID,
		"rule_description", record.RuleDescription,
		"fatal", record.Fatal,
		"file_name", record.FileName,
	)
	if s.metrics != nil {
		s.metrics.IncExceptionsRaised(record.Fatal)
	}
}
