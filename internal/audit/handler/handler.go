package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docaudit/internal/audit/metrics"
	"docaudit/internal/audit/orchestrator"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/platform/httputil"
	"docaudit/pkg/requestcontext"
)

// Service defines the interface for audit run operations.
type Service interface {
	Run(ctx context.Context, caseID int64) (*orchestrator.RunResult, error)
}

// Handler wires audit endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs an audit handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/audit/runs", h.HandleStartRun)
}

// HandleStartRun handles POST /audit/runs requests.
func (h *Handler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[StartRunRequest](w, r)
	if !ok {
		return
	}
	if req.CaseID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "case_id must be a positive integer"))
		return
	}

	result, err := h.service.Run(ctx, req.CaseID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit run failed",
			"request_id", requestID,
			"case_id", req.CaseID,
			"subject", requestcontext.Subject(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "audit run finished",
		"request_id", requestID,
		"case_id", req.CaseID,
		"run_id", result.RunID,
		"decision", result.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
