package aggregate

import (
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
)

// Slice is one segment of a share breakdown.
type Slice struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// Qualification splits inbound leads into hot, warm and cold.
func Qualification(t Totals) []Slice {
	out := []Slice{
		{Label: "Hot", Value: t.HotLeads},
		{Label: "Warm", Value: t.WarmLeads},
		{Label: "Cold", Value: t.ColdLeads},
	}
	total := t.HotLeads + t.WarmLeads + t.ColdLeads
	for i := range out {
		out[i].Percent = model.Percent(float64(out[i].Value), float64(total))
	}
	return out
}

// PerformanceBadge grades a close rate.
type PerformanceBadge string

const (
	BadgeExcellent        PerformanceBadge = "excellent"
	BadgeGood             PerformanceBadge = "good"
	BadgeNeedsImprovement PerformanceBadge = "needs_improvement"
)

// Badge grades closeRate: 50 and up is excellent, 25 and up is good.
func Badge(closeRate float64) PerformanceBadge {
	switch {
	case closeRate >= 50:
		return BadgeExcellent
	case closeRate >= 25:
		return BadgeGood
	default:
		return BadgeNeedsImprovement
	}
}

// MemberView is the per-member row of the dashboard.
type MemberView struct {
	Member  string        `json:"member"`
	Role    settings.Role `json:"role,omitempty"`
	Records int           `json:"records"`
	Counts
	AvgSMSRate      float64          `json:"avg_sms_rate"`
	AvgColdCallRate float64          `json:"avg_cold_call_rate"`
	AvgCloseRate    float64          `json:"avg_close_rate"`
	Badge           PerformanceBadge `json:"badge"`
}

// Members returns one view per member, sorted by name.
func Members(records []model.KPIRecord, roles settings.Roles) []MemberView {
	summaries := sortedSummaries(GroupByMember(records))
	out := make([]MemberView, 0, len(summaries))
	for _, m := range summaries {
		role, _ := roles.RoleOf(m.Member)
		out = append(out, MemberView{
			Member:          m.Member,
			Role:            role,
			Records:         m.Records,
			Counts:          m.Counts,
			AvgSMSRate:      m.AvgSMSRate(),
			AvgColdCallRate: m.AvgColdCallRate(),
			AvgCloseRate:    m.AvgCloseRate(),
			Badge:           Badge(m.AvgCloseRate()),
		})
	}
	return out
}

// Options tunes Build.
type Options struct {
	TopN        int
	Granularity Granularity
}

// Dashboard bundles every view for one filtered record set.
type Dashboard struct {
	Totals        Totals        `json:"totals"`
	Qualification []Slice       `json:"qualification"`
	Stages        []Stage       `json:"conversion"`
	Funnel        Funnel        `json:"funnel"`
	Members       []MemberView  `json:"members"`
	Roles         []RoleRanking `json:"roles"`
	Improvement   []MemberPlan  `json:"improvement"`
	Trend         []TrendBucket `json:"trend"`
	Changes       *Changes      `json:"changes"`
}

// Build computes the full dashboard.
func Build(records []model.KPIRecord, s settings.Settings, opts Options) Dashboard {
	if opts.Granularity == "" {
		opts.Granularity = Daily
	}
	totals := ComputeTotals(records)
	d := Dashboard{
		Totals:        totals,
		Qualification: Qualification(totals),
		Stages:        ComputeConversionStages(records, s.Benchmarks),
		Funnel:        ComputeFunnel(records),
		Members:       Members(records, s.Roles),
		Roles:         OrderedRankings(GroupByRole(records, s.Roles, opts.TopN)),
		Improvement:   ComputeImprovementPlan(records, s.Benchmarks, s.Roles),
		Trend:         ComputeTrend(records, opts.Granularity),
	}
	if c, ok := ComputeDayOverDayChange(records); ok {
		d.Changes = &c
	}
	return d
}
