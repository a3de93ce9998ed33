package aggregate

import (
	"fmt"
	"strconv"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
)

// Issue is a metric falling short of its target.
type Issue struct {
	Metric  string  `json:"metric"`
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Message string  `json:"message"`
}

// MemberPlan lists what a member should work on and what is going well.
type MemberPlan struct {
	Member    string        `json:"member"`
	Role      settings.Role `json:"role"`
	Issues    []Issue       `json:"issues"`
	Strengths []string      `json:"strengths"`
}

// ComputeImprovementPlan evaluates every role-mapped member against the
// checks for their role. Members without a role are skipped, as are members
// whose checks produce neither an issue nor a strength. Results are sorted
// by member name.
func ComputeImprovementPlan(records []model.KPIRecord, benchmarks settings.Benchmarks, roles settings.Roles) []MemberPlan {
	var out []MemberPlan
	for _, m := range sortedSummaries(GroupByMember(records)) {
		role, ok := roles.RoleOf(m.Member)
		if !ok {
			continue
		}
		plan := MemberPlan{Member: m.Member, Role: role, Issues: []Issue{}, Strengths: []string{}}
		switch role {
		case settings.LeadGenerator:
			checkRate(&plan, m.ColdCallLeads, m.ColdCalls, benchmarks.Get(settings.ColdCallResponseRate),
				"Cold Call Response Rate", "Rate is", "Cold Call Rate")
		case settings.SMSMarketing:
			checkRate(&plan, m.SMSLeads, m.SMSSent, benchmarks.Get(settings.SMSResponseRate),
				"SMS Response Rate", "Response rate is", "SMS Campaign")
		case settings.Closer:
			checkCloser(&plan, m)
		case settings.Analyst:
			checkAnalyst(&plan, m)
		}
		if len(plan.Issues) == 0 && len(plan.Strengths) == 0 {
			continue
		}
		out = append(out, plan)
	}
	if out == nil {
		out = []MemberPlan{}
	}
	return out
}

// checkRate classifies num/den against target. Members with no volume
// (den == 0) are not evaluated.
func checkRate(p *MemberPlan, num, den int, target settings.Range, metric, issuePrefix, strengthName string) {
	if den <= 0 {
		return
	}
	rate := model.Percent(float64(num), float64(den))
	switch {
	case rate < target.Min:
		p.Issues = append(p.Issues, Issue{
			Metric:  metric,
			Current: rate,
			Target:  target.Min,
			Message: fmt.Sprintf("%s %.1f%%, target is >%s%%", issuePrefix, rate, pct(target.Min)),
		})
	case rate > target.Max:
		p.Strengths = append(p.Strengths,
			fmt.Sprintf("Excellent %s: %.1f%% (Target >%s%%)", strengthName, rate, pct(target.Max)))
	default:
		p.Strengths = append(p.Strengths, fmt.Sprintf("Good %s: %.1f%%", strengthName, rate))
	}
}

func checkCloser(p *MemberPlan, m MemberSummary) {
	switch {
	case m.OffersSent > 0 && m.SignedContracts == 0:
		p.Issues = append(p.Issues, Issue{Metric: "Closing", Target: 1, Message: "Offers sent but no deals signed yet."})
	case m.OffersSent == 0:
		p.Issues = append(p.Issues, Issue{Metric: "Offers", Target: 1, Message: "No offers sent in this period."})
	default:
		p.Strengths = append(p.Strengths, fmt.Sprintf("%d deals signed from %d offers", m.SignedContracts, m.OffersSent))
	}
}

func checkAnalyst(p *MemberPlan, m MemberSummary) {
	if m.Compared == 0 {
		p.Issues = append(p.Issues, Issue{Metric: "Properties Compared", Target: 1, Message: "No properties compared in this period"})
		return
	}
	p.Strengths = append(p.Strengths, fmt.Sprintf("Analyzed %d properties", m.Compared))
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
