package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

type refreshResponse struct {
	Status      string    `json:"status"`
	JobID       string    `json:"job_id"`
	Force       bool      `json:"force"`
	RequestedAt time.Time `json:"requested_at"`
}

// RefreshHandler queues manual refreshes.
type RefreshHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRefreshHandler creates a refresh handler.
func NewRefreshHandler(deps Dependencies, log logger.Logger) *RefreshHandler {
	return &RefreshHandler{deps: deps, logger: log}
}

// HandleRefresh handles POST /refresh[?force=true]. A forced refresh skips
// the record cache.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	force := false
	if s := r.URL.Query().Get("force"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
			return
		}
		force = v
	}

	job, err := h.deps.RequestRefresh(r.Context(), model.TriggerManual, force)
	if err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{
		Status:      "accepted",
		JobID:       job.ID,
		Force:       job.Force,
		RequestedAt: job.RequestedAt,
	})
}
