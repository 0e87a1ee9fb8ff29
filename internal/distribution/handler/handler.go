package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cohortd/internal/distribution"
	"cohortd/internal/participant"
	"cohortd/internal/transport/http/shared"
	dErrors "cohortd/pkg/domain-errors"
)

// dateFromLayout is the wire format of the audit query's dateFrom parameter.
const dateFromLayout = "20060102"

// Service defines the distribution operations the handler exposes.
type Service interface {
	Distribute(ctx context.Context, delta distribution.Delta) (distribution.DistributeResult, error)
	Extract(ctx context.Context, req distribution.ExtractRequest) (distribution.ExtractResult, error)
	QueryAudit(ctx context.Context, filter distribution.AuditFilter) ([]distribution.RequestAudit, error)
	LatestAudit(ctx context.Context) (distribution.RequestAudit, error)
}

// Handler exposes the cohort distribution endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new distribution Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the distribution routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cohort-distribution", h.handleExtract)
	r.Get("/cohort-distribution/audit", h.handleAuditQuery)
	r.Get("/cohort-distribution/audit/latest", h.handleLatestAudit)
	r.Post("/participants", h.handleDistribute)
}

// handleExtract serves one poll from the downstream consumer.
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := distribution.ExtractRequest{SupersededLast: true}

	if raw := r.URL.Query().Get("requestId"); raw != "" {
		requestID, err := uuid.Parse(raw)
		if err != nil {
			h.logger.WarnContext(ctx, "malformed request id on extraction poll", "error", err.Error())
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "requestId must be a valid UUID"))
			return
		}
		req.RequestID = &requestID
	}
	if raw := r.URL.Query().Get("rowCount"); raw != "" {
		rowCount, err := strconv.Atoi(raw)
		if err != nil || rowCount <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "rowCount must be a positive integer"))
			return
		}
		req.RowCount = rowCount
	}

	result, err := h.service.Extract(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "extraction poll failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	if result.Outcome == distribution.OutcomeEmpty {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

// handleAuditQuery serves the read-only ledger query.
func (h *Handler) handleAuditQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter distribution.AuditFilter

	if raw := r.URL.Query().Get("requestId"); raw != "" {
		requestID, err := uuid.Parse(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "requestId must be a valid UUID"))
			return
		}
		filter.RequestID = &requestID
	}
	if raw := r.URL.Query().Get("statusCode"); raw != "" {
		statusCode, err := strconv.Atoi(raw)
		if err != nil || !distribution.ValidAuditStatus(statusCode) {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "statusCode must be one of 200, 204 or 500"))
			return
		}
		filter.StatusCode = &statusCode
	}
	if raw := r.URL.Query().Get("dateFrom"); raw != "" {
		dateFrom, err := time.Parse(dateFromLayout, raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "dateFrom must use the yyyyMMdd format"))
			return
		}
		filter.DateFrom = &dateFrom
	}

	audits, err := h.service.QueryAudit(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	if len(audits) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.WriteJSON(w, http.StatusOK, audits)
}

// handleLatestAudit serves the most recent ledger row.
func (h *Handler) handleLatestAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	audit, err := h.service.LatestAudit(ctx)
	if err != nil {
		if errors.Is(err, distribution.ErrAuditNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.ErrorContext(ctx, "latest audit lookup failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, audit)
}

// handleDistribute is the ingestion boundary for the upstream pipeline.
func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.WarnContext(ctx, "invalid distribute request", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Distribute(ctx, body.toDelta())
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "participant delta rejected",
				"workflow", body.Workflow,
				"file_name", body.FileName,
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to distribute participant", "error", err.Error())
		}
		shared.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.ExceptionFlag {
		status = http.StatusOK
	}
	shared.WriteJSON(w, status, map[string]any{
		"version":       result.Participant.Version,
		"exceptionFlag": result.ExceptionFlag,
	})
}

type distributeRequest struct {
	Workflow         string             `json:"workflow"`
	ScreeningService string             `json:"screeningService"`
	FileName         string             `json:"fileName"`
	Participant      participantPayload `json:"participant"`
}

func (r distributeRequest) toDelta() distribution.Delta {
	return distribution.Delta{
		Participant:      r.Participant.toModel(),
		Workflow:         participant.Workflow(r.Workflow),
		ScreeningService: r.ScreeningService,
		FileName:         r.FileName,
	}
}
