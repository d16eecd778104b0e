// Package handler exposes custody checks over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"jailcheck/internal/custody/models"
	"jailcheck/internal/custody/service"
	"jailcheck/internal/report"
	dErrors "jailcheck/pkg/domain-errors"
	"jailcheck/pkg/platform/httputil"
	"jailcheck/pkg/requestcontext"
)

const defaultListLimit = 20

// Service defines the custody-check operations the handler needs.
type Service interface {
	Check(ctx context.Context, req service.CheckRequest) (*models.Run, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Run, error)
	List(ctx context.Context, limit int) ([]*models.Run, error)
}

// Handler wires custody-check endpoints to the service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	checkTimeout time.Duration
}

// New constructs a handler. A zero checkTimeout leaves POST requests bounded
// only by the client connection.
func New(service Service, logger *slog.Logger, checkTimeout time.Duration) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		checkTimeout: checkTimeout,
	}
}

// Register mounts custody-check endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/custody-checks", h.HandleCheck)
	r.Get("/custody-checks", h.HandleList)
	r.Get("/custody-checks/{id}", h.HandleGet)
}

// HandleCheck handles POST /custody-checks. The run is returned with 201 when
// completed and with 502 when the roster could not be read.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if h.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.checkTimeout)
		defer cancel()
	}

	run, err := h.service.Check(ctx, req.ToService())
	if err != nil {
		h.logger.ErrorContext(ctx, "custody check failed",
			"request_id", requestID,
			"defendants", len(req.Defendants),
			"error", err,
		)
		if run != nil && dErrors.HasCode(err, dErrors.CodeUnavailable) {
			httputil.WriteJSON(w, http.StatusBadGateway, report.FromRun(run))
			return
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "custody check completed",
		"request_id", requestID,
		"run_id", run.ID,
		"in_custody", run.Result.Summary.InCustody,
	)
	httputil.WriteJSON(w, http.StatusCreated, report.FromRun(run))
}

// HandleGet handles GET /custody-checks/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid run id"))
		return
	}

	run, err := h.service.Get(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "custody check lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"run_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report.FromRun(run))
}

// HandleList handles GET /custody-checks?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}

	runs, err := h.service.List(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toList(runs))
}
