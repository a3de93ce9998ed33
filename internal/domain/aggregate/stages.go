package aggregate

import (
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
)

// Stage is one conversion step between two pipeline totals.
type Stage struct {
	From           string         `json:"from"`
	To             string         `json:"to"`
	FromTotal      int            `json:"from_total"`
	ToTotal        int            `json:"to_total"`
	Rate           float64        `json:"rate"`
	Benchmark      string         `json:"benchmark"`
	Target         settings.Range `json:"target"`
	MeetsBenchmark bool           `json:"meets_benchmark"`
}

// ComputeConversionStages returns the six pipeline transitions in fixed
// order. A stage with an empty source has rate 0 and never meets its
// benchmark.
func ComputeConversionStages(records []model.KPIRecord, benchmarks settings.Benchmarks) []Stage {
	t := ComputeTotals(records)
	qualified := t.QualifiedLeads()

	stages := []Stage{
		{From: "SMS", To: "Leads", FromTotal: t.SMSSent, ToTotal: t.SMSLeads, Benchmark: settings.SMSResponseRate},
		{From: "Cold Calls", To: "Leads", FromTotal: t.ColdCalls, ToTotal: t.ColdCallLeads, Benchmark: settings.ColdCallResponseRate},
		{From: "Leads", To: "Qualified", FromTotal: t.TotalLeads(), ToTotal: qualified, Benchmark: settings.LeadToQualifiedRate},
		{From: "Qualified", To: "Offers", FromTotal: qualified, ToTotal: t.OffersSent, Benchmark: settings.QualifiedToOfferRate},
		{From: "Offers", To: "Contracts", FromTotal: t.OffersSent, ToTotal: t.ContractsSent, Benchmark: settings.OfferToContractRate},
		{From: "Contracts", To: "Signed", FromTotal: t.ContractsSent, ToTotal: t.SignedContracts, Benchmark: settings.ContractSignRate},
	}
	for i := range stages {
		s := &stages[i]
		s.Rate = model.Percent(float64(s.ToTotal), float64(s.FromTotal))
		s.Target = benchmarks.Get(s.Benchmark)
		s.MeetsBenchmark = s.FromTotal > 0 && s.Rate >= s.Target.Min
	}
	return stages
}
