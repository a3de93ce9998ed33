// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
	"github.com/okian/kpiboard/pkg/logger"
)

// maxBodyBytes bounds settings request bodies.
const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose the current snapshot.
	View(c filter.Criteria) service.View
	Members() []string
	Settings() settings.Settings

	// RequestRefresh queues a refresh. Returns service.ErrBackpressure when
	// the queue is full.
	RequestRefresh(ctx context.Context, trigger string, force bool) (model.RefreshJob, error)

	// Settings mutations persist before returning.
	UpdateBenchmark(ctx context.Context, key string, r settings.Range) error
	AssignRole(ctx context.Context, name string, role settings.Role) error
	AddMember(ctx context.Context, name string) error
	RemoveMember(ctx context.Context, name string) error
	SetAlias(ctx context.Context, alias, canonical string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	viewHandler     *ViewHandler
	refreshHandler  *RefreshHandler
	settingsHandler *SettingsHandler
	exportHandler   *ExportHandler

	logger logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{logger: logger.Get().Named("api"), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		viewHandler:     NewViewHandler(deps, o.logger),
		refreshHandler:  NewRefreshHandler(deps, o.logger),
		settingsHandler: NewSettingsHandler(deps, o.logger),
		exportHandler:   NewExportHandler(deps, o.logger, o.now),
		logger:          o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("GET /records", "records", s.viewHandler.HandleRecords)
	handle("GET /members", "members", s.viewHandler.HandleMembers)
	handle("GET /dashboard", "dashboard", s.viewHandler.HandleDashboard)
	handle("GET /totals", "totals", s.viewHandler.HandleTotals)
	handle("GET /conversion", "conversion", s.viewHandler.HandleConversion)
	handle("GET /funnel", "funnel", s.viewHandler.HandleFunnel)
	handle("GET /team", "team", s.viewHandler.HandleTeam)
	handle("GET /roles", "roles", s.viewHandler.HandleRoles)
	handle("GET /improvement", "improvement", s.viewHandler.HandleImprovement)
	handle("GET /trend", "trend", s.viewHandler.HandleTrend)
	handle("GET /changes", "changes", s.viewHandler.HandleChanges)

	handle("POST /refresh", "refresh", s.refreshHandler.HandleRefresh)

	handle("GET /settings", "settings", s.settingsHandler.HandleGetSettings)
	handle("GET /settings/benchmarks", "settings_benchmarks", s.settingsHandler.HandleGetBenchmarks)
	handle("PUT /settings/benchmarks", "settings_benchmarks", s.settingsHandler.HandlePutBenchmark)
	handle("GET /settings/roles", "settings_roles", s.settingsHandler.HandleGetRoles)
	handle("PUT /settings/roles", "settings_roles", s.settingsHandler.HandlePutRole)
	handle("POST /settings/roles", "settings_roles", s.settingsHandler.HandlePostMember)
	handle("DELETE /settings/roles/{name}", "settings_roles", s.settingsHandler.HandleDeleteMember)
	handle("GET /settings/aliases", "settings_aliases", s.settingsHandler.HandleGetAliases)
	handle("PUT /settings/aliases", "settings_aliases", s.settingsHandler.HandlePutAlias)

	handle("GET /export.xlsx", "export", s.exportHandler.HandleExport)
}

// Handler returns mux wrapped with the request-scoped middleware.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return RequestID(AccessLog(mux, s.logger))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes the {code, message} body.
// Server-side failures are logged.
func writeError(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
