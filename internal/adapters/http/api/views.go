package api

import (
	"net/http"
	"time"

	service "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

// meta describes the snapshot and filter a view was computed from.
type meta struct {
	Snapshot  string        `json:"snapshot"`
	Source    string        `json:"source"`
	FetchedAt time.Time     `json:"fetched_at"`
	Warning   string        `json:"warning,omitempty"`
	Records   int           `json:"records"`
	Member    string        `json:"member"`
	Period    filter.Period `json:"period"`
	From      model.Date    `json:"from"`
	To        model.Date    `json:"to"`
}

type viewResponse struct {
	Meta meta `json:"meta"`
	Data any  `json:"data"`
}

type recordView struct {
	Record model.KPIRecord            `json:"record"`
	Badge  aggregate.PerformanceBadge `json:"badge"`
}

// ViewHandler serves the read-only dashboard views.
type ViewHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewViewHandler creates a view handler.
func NewViewHandler(deps Dependencies, log logger.Logger) *ViewHandler {
	return &ViewHandler{deps: deps, logger: log}
}

// loadView parses the filter query and returns the filtered snapshot.
func loadView(deps Dependencies, r *http.Request) (service.View, error) {
	c, err := filter.ParseCriteria(r.URL.Query())
	if err != nil {
		return service.View{}, err
	}
	return deps.View(c), nil
}

func (h *ViewHandler) respond(w http.ResponseWriter, v service.View, data any) {
	member := v.Criteria.Member
	if member == "" {
		member = filter.AllMembers
	}
	writeJSON(w, http.StatusOK, viewResponse{
		Meta: meta{
			Snapshot:  v.Snapshot.ID,
			Source:    v.Snapshot.Source,
			FetchedAt: v.Snapshot.FetchedAt,
			Warning:   v.Snapshot.Warning,
			Records:   len(v.Records),
			Member:    member,
			Period:    v.Criteria.Period,
			From:      v.Criteria.From,
			To:        v.Criteria.To,
		},
		Data: data,
	})
}

// serve is the common shape of every view endpoint.
func (h *ViewHandler) serve(op string, compute func(service.View) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := loadView(h.deps, r)
		if err != nil {
			writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
			return
		}
		h.respond(w, v, compute(v))
	}
}

// HandleRecords handles GET /records.
func (h *ViewHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	h.serve("api.records", func(v service.View) any {
		out := make([]recordView, 0, len(v.Records))
		for _, rec := range v.Records {
			out = append(out, recordView{Record: rec, Badge: aggregate.Badge(rec.CloseRate())})
		}
		return out
	})(w, r)
}

// HandleMembers handles GET /members. The list ignores filters so selectors
// can offer every member.
func (h *ViewHandler) HandleMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"members": h.deps.Members()})
}

// HandleDashboard handles GET /dashboard?granularity=daily|weekly.
func (h *ViewHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	g, err := aggregate.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	h.serve(op, func(v service.View) any { return v.Dashboard(g) })(w, r)
}

// HandleTotals handles GET /totals.
func (h *ViewHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	h.serve("api.totals", func(v service.View) any {
		t := aggregate.ComputeTotals(v.Records)
		return map[string]any{"totals": t, "qualification": aggregate.Qualification(t)}
	})(w, r)
}

// HandleConversion handles GET /conversion.
func (h *ViewHandler) HandleConversion(w http.ResponseWriter, r *http.Request) {
	h.serve("api.conversion", func(v service.View) any {
		return aggregate.ComputeConversionStages(v.Records, v.Settings.Benchmarks)
	})(w, r)
}

// HandleFunnel handles GET /funnel.
func (h *ViewHandler) HandleFunnel(w http.ResponseWriter, r *http.Request) {
	h.serve("api.funnel", func(v service.View) any {
		return aggregate.ComputeFunnel(v.Records)
	})(w, r)
}

// HandleTeam handles GET /team.
func (h *ViewHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	h.serve("api.team", func(v service.View) any {
		return aggregate.Members(v.Records, v.Settings.Roles)
	})(w, r)
}

// HandleRoles handles GET /roles.
func (h *ViewHandler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	h.serve("api.roles", func(v service.View) any {
		return aggregate.OrderedRankings(aggregate.GroupByRole(v.Records, v.Settings.Roles, v.TopN))
	})(w, r)
}

// HandleImprovement handles GET /improvement.
func (h *ViewHandler) HandleImprovement(w http.ResponseWriter, r *http.Request) {
	h.serve("api.improvement", func(v service.View) any {
		return aggregate.ComputeImprovementPlan(v.Records, v.Settings.Benchmarks, v.Settings.Roles)
	})(w, r)
}

// HandleTrend handles GET /trend?granularity=daily|weekly.
func (h *ViewHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.trend"
	g, err := aggregate.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	h.serve(op, func(v service.View) any {
		return aggregate.ComputeTrend(v.Records, g)
	})(w, r)
}

// HandleChanges handles GET /changes. Data is null when fewer than two
// dates are present.
func (h *ViewHandler) HandleChanges(w http.ResponseWriter, r *http.Request) {
	h.serve("api.changes", func(v service.View) any {
		c, ok := aggregate.ComputeDayOverDayChange(v.Records)
		if !ok {
			return nil
		}
		return c
	})(w, r)
}
