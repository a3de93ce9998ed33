package aggregate

import "github.com/okian/kpiboard/internal/domain/model"

// FunnelStage is one funnel step. Conversion is the percentage carried to
// the next stage; it is nil for the last stage and for empty stages.
type FunnelStage struct {
	Stage      string   `json:"stage"`
	Value      int      `json:"value"`
	Conversion *float64 `json:"conversion,omitempty"`
}

// Funnel is the seven-stage outreach-to-signed pipeline.
type Funnel struct {
	Stages  []FunnelStage `json:"stages"`
	Overall float64       `json:"overall"`
}

// ComputeFunnel returns the seven fixed funnel stages.
func ComputeFunnel(records []model.KPIRecord) Funnel {
	t := ComputeTotals(records)
	stages := []FunnelStage{
		{Stage: "Outreach", Value: t.Outreach()},
		{Stage: "Total Leads", Value: t.TotalLeads()},
		{Stage: "Qualified Leads", Value: t.QualifiedLeads()},
		{Stage: "Compared", Value: t.Compared},
		{Stage: "Offers Sent", Value: t.OffersSent},
		{Stage: "Contracts", Value: t.ContractsSent},
		{Stage: "Signed", Value: t.SignedContracts},
	}
	for i := 0; i < len(stages)-1; i++ {
		if stages[i].Value == 0 {
			continue
		}
		c := model.Percent(float64(stages[i+1].Value), float64(stages[i].Value))
		stages[i].Conversion = &c
	}
	first, last := stages[0].Value, stages[len(stages)-1].Value
	return Funnel{
		Stages:  stages,
		Overall: model.Percent(float64(last), float64(first)),
	}
}
