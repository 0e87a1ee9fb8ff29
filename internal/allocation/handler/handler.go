package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cohortd/internal/allocation"
	"cohortd/internal/transport/http/shared"
	dErrors "cohortd/pkg/domain-errors"
)

// Service resolves a serving provider. Satisfied by *allocation.Service.
type Service interface {
	Allocate(ctx context.Context, req allocation.Request) (string, error)
}

// Handler exposes the provider allocation endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the allocation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/allocation", h.handleAllocate)
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req allocation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid allocation request", "error", err.Error())
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	provider, err := h.service.Allocate(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "allocation request rejected", "screening_service", req.ScreeningService)
		} else {
			h.logger.ErrorContext(ctx, "allocation failed", "error", err.Error())
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"serviceProvider": provider})
}
