package aggregate

import (
	"fmt"
	"sort"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
)

// DefaultTopN is how many ranked members each role keeps for display.
const DefaultTopN = 3

// RankedMember is one member's standing within a role.
type RankedMember struct {
	Member string  `json:"member"`
	Score  int     `json:"score"`
	Rate   float64 `json:"rate"`
	Detail string  `json:"detail"`
}

// RoleRanking is the leaderboard for one role.
type RoleRanking struct {
	Role         settings.Role  `json:"role"`
	Label        string         `json:"label"`
	MetricLabel  string         `json:"metric_label"`
	Top          []RankedMember `json:"top"`
	TopPerformer string         `json:"top_performer"`
	AvgRate      float64        `json:"avg_rate"`
	Qualifying   int            `json:"qualifying"`
}

// roleMetric defines how a role picks, scores and describes its members.
type roleMetric struct {
	label       string
	metricLabel string
	qualifies   func(MemberSummary) bool
	score       func(MemberSummary) int
	rate        func(MemberSummary) float64
	detail      func(MemberSummary) string
}

var roleMetrics = map[settings.Role]roleMetric{
	settings.LeadGenerator: {
		label:       "Cold Callers",
		metricLabel: "Avg Lead Rate",
		qualifies:   func(m MemberSummary) bool { return m.ColdCallLeads > 0 },
		score:       func(m MemberSummary) int { return m.ColdCallLeads },
		rate:        func(m MemberSummary) float64 { return model.Percent(float64(m.ColdCallLeads), float64(m.ColdCalls)) },
		detail: func(m MemberSummary) string {
			return fmt.Sprintf("%d leads from %d calls", m.ColdCallLeads, m.ColdCalls)
		},
	},
	settings.SMSMarketing: {
		label:       "SMS Team",
		metricLabel: "Avg Response Rate",
		qualifies:   func(m MemberSummary) bool { return m.SMSSent > 0 },
		score:       func(m MemberSummary) int { return m.SMSLeads },
		rate:        func(m MemberSummary) float64 { return model.Percent(float64(m.SMSLeads), float64(m.SMSSent)) },
		detail: func(m MemberSummary) string {
			return fmt.Sprintf("%d leads from %d SMS", m.SMSLeads, m.SMSSent)
		},
	},
	settings.Closer: {
		label:       "Acquisitions",
		metricLabel: "Avg Close Rate",
		qualifies:   func(m MemberSummary) bool { return m.OffersSent > 0 || m.SignedContracts > 0 },
		score:       func(m MemberSummary) int { return m.SignedContracts },
		rate:        func(m MemberSummary) float64 { return model.Percent(float64(m.SignedContracts), float64(m.OffersSent)) },
		detail: func(m MemberSummary) string {
			return fmt.Sprintf("%d signed / %d offers", m.SignedContracts, m.OffersSent)
		},
	},
	settings.Analyst: {
		label:       "Property Analysts",
		metricLabel: "Avg Rejection Rate",
		qualifies:   func(m MemberSummary) bool { return m.Compared > 0 },
		score:       func(m MemberSummary) int { return m.Compared },
		rate:        func(m MemberSummary) float64 { return model.Percent(float64(m.Rejected), float64(m.Compared)) },
		detail: func(m MemberSummary) string {
			return fmt.Sprintf("%d compared, %d rejected", m.Compared, m.Rejected)
		},
	},
}

// GroupByRole ranks members within each of the four roles. A member with an
// assigned role competes only in that role; an unassigned member competes in
// every role where it shows activity. Rankings are ordered by score
// descending with ties broken by name. Only the first topN entries are kept,
// but AvgRate covers every qualifying member. topN <= 0 uses DefaultTopN.
func GroupByRole(records []model.KPIRecord, roles settings.Roles, topN int) map[settings.Role]RoleRanking {
	if topN <= 0 {
		topN = DefaultTopN
	}
	members := sortedSummaries(GroupByMember(records))

	out := make(map[settings.Role]RoleRanking, len(settings.AllRoles))
	for _, role := range settings.AllRoles {
		def := roleMetrics[role]
		var ranked []RankedMember
		var rateSum float64
		for _, m := range members {
			if assigned, ok := roles.RoleOf(m.Member); ok && assigned != role {
				continue
			}
			if !def.qualifies(m) {
				continue
			}
			rm := RankedMember{Member: m.Member, Score: def.score(m), Rate: def.rate(m), Detail: def.detail(m)}
			rateSum += rm.Rate
			ranked = append(ranked, rm)
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

		rr := RoleRanking{
			Role:         role,
			Label:        def.label,
			MetricLabel:  def.metricLabel,
			Top:          ranked[:min(topN, len(ranked))],
			TopPerformer: "N/A",
			AvgRate:      mean(rateSum, len(ranked)),
			Qualifying:   len(ranked),
		}
		if rr.Top == nil {
			rr.Top = []RankedMember{}
		}
		if len(ranked) > 0 {
			rr.TopPerformer = ranked[0].Member
		}
		out[role] = rr
	}
	return out
}

// OrderedRankings returns rankings in the fixed role order.
func OrderedRankings(byRole map[settings.Role]RoleRanking) []RoleRanking {
	out := make([]RoleRanking, 0, len(byRole))
	for _, role := range settings.AllRoles {
		if rr, ok := byRole[role]; ok {
			out = append(out, rr)
		}
	}
	return out
}
