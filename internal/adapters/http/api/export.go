package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/kpiboard/internal/adapters/export"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/pkg/logger"
)

// ExportHandler serves the filtered view as an xlsx workbook.
type ExportHandler struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

// NewExportHandler creates an export handler.
func NewExportHandler(deps Dependencies, log logger.Logger, now func() time.Time) *ExportHandler {
	return &ExportHandler{deps: deps, logger: log, now: now}
}

// HandleExport handles GET /export.xlsx with the usual filter parameters.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	q := r.URL.Query()
	g, err := aggregate.ParseGranularity(q.Get("granularity"))
	if err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := loadView(h.deps, r)
	if err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	// buffer so a failed render can still return a JSON error
	var buf bytes.Buffer
	if err := export.Write(&buf, v.Records, v.Dashboard(g)); err != nil {
		writeError(r.Context(), w, h.logger, Wrap(op, err))
		return
	}

	name := fmt.Sprintf("kpi-export-%s.xlsx", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
