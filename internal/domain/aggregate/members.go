package aggregate

import (
	"maps"
	"slices"

	"github.com/okian/kpiboard/internal/domain/model"
)

// MemberSummary accumulates one member's records.
type MemberSummary struct {
	Member  string `json:"member"`
	Records int    `json:"records"`
	Counts
	CloseRates    []float64 `json:"close_rates"`
	SMSRates      []float64 `json:"sms_rates"`
	ColdCallRates []float64 `json:"cold_call_rates"`
}

// AvgCloseRate is the mean of the member's per-record close rates.
func (m MemberSummary) AvgCloseRate() float64 { return average(m.CloseRates) }

// AvgSMSRate is the mean of the member's per-record SMS lead rates.
func (m MemberSummary) AvgSMSRate() float64 { return average(m.SMSRates) }

// AvgColdCallRate is the mean of the member's per-record cold-call rates.
func (m MemberSummary) AvgColdCallRate() float64 { return average(m.ColdCallRates) }

// GroupByMember keys records by canonical member identity.
func GroupByMember(records []model.KPIRecord) map[string]MemberSummary {
	out := make(map[string]MemberSummary)
	for _, r := range records {
		name := r.Identity()
		m, ok := out[name]
		if !ok {
			m.Member = name
		}
		m.Records++
		m.add(r)
		m.CloseRates = append(m.CloseRates, r.CloseRate())
		m.SMSRates = append(m.SMSRates, r.SMSLeadRate())
		m.ColdCallRates = append(m.ColdCallRates, r.ColdCallRate())
		out[name] = m
	}
	return out
}

// MemberList returns the distinct member identities, sorted.
func MemberList(records []model.KPIRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Identity()] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// sortedSummaries returns the summaries ordered by member name.
func sortedSummaries(byMember map[string]MemberSummary) []MemberSummary {
	out := make([]MemberSummary, 0, len(byMember))
	for _, name := range slices.Sorted(maps.Keys(byMember)) {
		out = append(out, byMember[name])
	}
	return out
}
