package distribution

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cohortd/internal/allocation"
	"cohortd/internal/participant"
	"cohortd/internal/platform/metrics"
	"cohortd/internal/transform"
	"cohortd/internal/validation"
	dErrors "cohortd/pkg/domain-errors"
)

// Allocator resolves a serving provider for a participant. Satisfied by
// *allocation.Service.
type Allocator interface {
	Allocate(ctx context.Context, req allocation.Request) (string, error)
}

// Transformer normalizes reason-for-removal semantics. Satisfied by
// *transform.Service.
type Transformer interface {
	Apply(ctx context.Context, p participant.Participant, existingProvider, fileName string) (transform.Result, error)
}

// Validator classifies a candidate transition. Satisfied by
// *validation.Service.
type Validator interface {
	Classify(ctx context.Context, existing *participant.Participant, candidate participant.Participant, workflow participant.Workflow, fileName string) validation.Result
}

// Service orchestrates the distribution pipeline and the pull-based batch
// extraction protocol. Each call is a stateless unit of work; all cross-call
// state lives in the backing stores.
type Service struct {
	participants participant.Store
	audit        AuditStore
	tx           Tx
	allocator    Allocator
	transformer  Transformer
	validator    Validator
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxRows      int
	now          func() time.Time
	newRequestID func() uuid.UUID
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

// WithRequestIDSource sets the request id generator for testability.
func WithRequestIDSource(gen func() uuid.UUID) Option {
	return func(s *Service) {
		if gen != nil {
			s.newRequestID = gen
		}
	}
}

func NewService(
	participants participant.Store,
	audit AuditStore,
	tx Tx,
	allocator Allocator,
	transformer Transformer,
	validator Validator,
	logger *slog.Logger,
	m *metrics.Metrics,
	maxRows int,
	opts ...Option,
) *Service {
	s := &Service{
		participants: participants,
		audit:        audit,
		tx:           tx,
		allocator:    allocator,
		transformer:  transformer,
		validator:    validator,
		logger:       logger,
		metrics:      m,
		maxRows:      maxRows,
		now:          time.Now,
		newRequestID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Distribute runs one ingested delta through allocation, transformation and
// validation, then persists the surviving candidate as a new version.
// A fatal validation verdict rejects the delta without persisting anything.
func (s *Service) Distribute(ctx context.Context, delta Delta) (DistributeResult, error) {
	p := delta.Participant
	if p.NHSNumber == "" || p.ScreeningServiceID == "" {
		return DistributeResult{}, dErrors.New(dErrors.CodeBadRequest, "nhs number and screening service id are required")
	}
	if !delta.Workflow.IsValid() {
		return DistributeResult{}, dErrors.Newf(dErrors.CodeBadRequest, "unsupported workflow %q", delta.Workflow)
	}

	// The provider allocation and the history fetch are independent store
	// round trips; run them concurrently.
	var (
		existing    *participant.Participant
		provider    string
		g, groupCtx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		record, err := s.participants.LatestCurrent(groupCtx, p.NHSNumber, p.ScreeningServiceID)
		if errors.Is(err, participant.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load distributed history")
		}
		existing = &record
		return nil
	})
	g.Go(func() error {
		allocated, err := s.allocator.Allocate(groupCtx, allocation.Request{
			NHSNumber:        p.NHSNumber,
			Postcode:         p.Postcode,
			ScreeningService: delta.ScreeningService,
		})
		if err != nil {
			return err
		}
		provider = allocated
		return nil
	})
	if err := g.Wait(); err != nil {
		return DistributeResult{}, err
	}

	existingProvider := ""
	if existing != nil {
		existingProvider = existing.PrimaryCareProvider
	}
	transformed, err := s.transformer.Apply(ctx, p, existingProvider, delta.FileName)
	if err != nil {
		return DistributeResult{}, err
	}

	candidate := transformed.Participant
	candidate.ServiceProvider = provider

	result := s.validator.Classify(ctx, existing, candidate, delta.Workflow, delta.FileName)
	if result.Classification == validation.ClassificationFatal {
		return DistributeResult{}, dErrors.New(dErrors.CodeValidation, "participant delta rejected by lookup validation")
	}

	// Non-fatal outcomes always persist with the exception flag; this is
	// one policy for every call path.
	exceptionFlag := result.Classification == validation.ClassificationNonFatal ||
		(transformed.Outcome == transform.OutcomeUnchanged && transformed.Rule != transform.RuleNone)
	candidate.ExceptionFlag = exceptionFlag

	stored, err := s.participants.Append(ctx, candidate)
	if err != nil {
		return DistributeResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist participant")
	}

	return DistributeResult{Participant: stored, ExceptionFlag: exceptionFlag}, nil
}

// Extract answers one poll from the downstream consumer. A known request id
// replays the batch served under it with no side effects; otherwise a fresh
// batch is selected, marked and audited as one atomic unit.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	rowCount := req.RowCount
	if rowCount <= 0 || rowCount > s.maxRows {
		rowCount = s.maxRows
	}

	if req.RequestID != nil {
		audit, err := s.audit.ByID(ctx, *req.RequestID)
		if err == nil {
			return s.replay(ctx, audit)
		}
		if !errors.Is(err, ErrAuditNotFound) {
			return ExtractResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve request audit")
		}
		// Unknown id: fall through to a fresh batch.
	}

	var result ExtractResult
	err := s.tx.RunInTx(ctx, func(participants participant.Store, audit AuditStore) error {
		rows, err := participants.SelectUnextracted(ctx, rowCount, req.SupersededLast)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to select unextracted participants")
		}
		if len(rows) == 0 {
			result = ExtractResult{Outcome: OutcomeEmpty}
			return nil
		}

		requestID := s.newRequestID()
		rowIDs := make([]int64, len(rows))
		for i, row := range rows {
			rowIDs[i] = row.RowID
			rid := requestID
			rows[i].Extracted = true
			rows[i].RequestID = &rid
		}
		if err := participants.MarkExtracted(ctx, rowIDs, requestID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark participants extracted")
		}
		if err := audit.Insert(ctx, RequestAudit{
			RequestID:  requestID,
			StatusCode: StatusSuccess,
			CreatedAt:  s.now(),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record request audit")
		}

		result = ExtractResult{Outcome: OutcomeBatch, RequestID: requestID, Participants: rows}
		return nil
	})
	if err != nil {
		return ExtractResult{}, err
	}

	switch result.Outcome {
	case OutcomeBatch:
		s.logger.InfoContext(ctx, "extraction batch served",
			"request_id", result.RequestID.String(),
			"rows", len(result.Participants),
		)
		if s.metrics != nil {
			s.metrics.BatchesServed.Inc()
			s.metrics.RowsExtracted.Add(float64(len(result.Participants)))
		}
	case OutcomeEmpty:
		s.logger.InfoContext(ctx, "extraction poll found nothing pending")
	}
	return result, nil
}

func (s *Service) replay(ctx context.Context, audit RequestAudit) (ExtractResult, error) {
	rows, err := s.participants.ByRequestID(ctx, audit.RequestID)
	if err != nil {
		return ExtractResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to replay batch")
	}
	if len(rows) == 0 {
		return ExtractResult{Outcome: OutcomeEmpty, RequestID: audit.RequestID}, nil
	}

	s.logger.InfoContext(ctx, "extraction batch replayed",
		"request_id", audit.RequestID.String(),
		"rows", len(rows),
	)
	if s.metrics != nil {
		s.metrics.BatchReplays.Inc()
	}
	return ExtractResult{Outcome: OutcomeReplay, RequestID: audit.RequestID, Participants: rows}, nil
}

// QueryAudit returns ledger rows matching the filter. Read-only.
func (s *Service) QueryAudit(ctx context.Context, filter AuditFilter) ([]RequestAudit, error) {
	if filter.StatusCode != nil && !ValidAuditStatus(*filter.StatusCode) {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unsupported status code filter %d", *filter.StatusCode)
	}
	audits, err := s.audit.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query request audit")
	}
	return audits, nil
}

// LatestAudit returns the most recent ledger row, or ErrAuditNotFound when
// the ledger is empty.
func (s *Service) LatestAudit(ctx context.Context) (RequestAudit, error) {
	audit, err := s.audit.Latest(ctx)
	if errors.Is(err, ErrAuditNotFound) {
		return RequestAudit{}, err
	}
	if err != nil {
		return RequestAudit{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest request audit")
	}
	return audit, nil
}
