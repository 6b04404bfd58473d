package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rtbconsent/internal/auction/models"
	"rtbconsent/internal/auction/service"
	"rtbconsent/pkg/platform/httputil"
	"rtbconsent/pkg/requestcontext"
)

// HeaderSnapshotSource reports where the consent snapshot came from.
const HeaderSnapshotSource = "X-Consent-Source"

// Service defines the interface for bid request building.
type Service interface {
	Build(ctx context.Context, req models.AdRequest) (*service.Result, error)
}

// Handler wires the bid request endpoint to the auction service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auction handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts auction endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/bid-requests", h.HandleBuild)
}

// HandleBuild handles POST /v1/bid-requests and responds with the OpenRTB
// bid request.
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.AdRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.DeviceID = requestcontext.DeviceID(ctx)

	result, err := h.service.Build(ctx, *req)
	if err != nil {
		h.logger.ErrorContext(ctx, "bid request build failed",
			"request_id", requestID,
			"config_id", req.AdUnit.ConfigID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bid request served",
		"request_id", requestID,
		"config_id", req.AdUnit.ConfigID,
		"snapshot_source", string(result.SnapshotSource),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set(HeaderSnapshotSource, string(result.SnapshotSource))
	httputil.WriteJSON(w, http.StatusOK, result.Request)
}
