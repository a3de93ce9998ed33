// Package aggregate turns filtered KPI records into the derived views the
// dashboard shows: totals, conversion stages, the funnel, member and role
// breakdowns, improvement plans, trends and day-over-day deltas.
//
// Every function is pure. Inputs are never modified and degenerate input
// (empty slices, zero denominators, unmapped members) yields zero values
// instead of errors.
package aggregate

import "github.com/okian/kpiboard/internal/domain/model"

// Counts holds summed count fields.
type Counts struct {
	SMSSent         int `json:"sms_sent"`
	SMSLeads        int `json:"sms_leads"`
	ColdCalls       int `json:"cold_calls"`
	ColdCallLeads   int `json:"cold_call_leads"`
	MailReceived    int `json:"mail_received"`
	MailLeads       int `json:"mail_leads"`
	InboundLeads    int `json:"inbound_leads"`
	HotLeads        int `json:"hot_leads"`
	WarmLeads       int `json:"warm_leads"`
	ColdLeads       int `json:"cold_leads"`
	Compared        int `json:"compared_properties"`
	Rejected        int `json:"rejected_leads"`
	OffersSent      int `json:"offers_sent"`
	ContractsSent   int `json:"contracts_sent"`
	SignedContracts int `json:"signed_contracts"`
}

func (c *Counts) add(r model.KPIRecord) {
	c.SMSSent += r.SMSSent
	c.SMSLeads += r.SMSLeads
	c.ColdCalls += r.ColdCalls
	c.ColdCallLeads += r.ColdCallLeads
	c.MailReceived += r.MailReceived
	c.MailLeads += r.MailLeads
	c.InboundLeads += r.InboundLeads
	c.HotLeads += r.HotLeads
	c.WarmLeads += r.WarmLeads
	c.ColdLeads += r.ColdLeads()
	c.Compared += r.Compared
	c.Rejected += r.Rejected
	c.OffersSent += r.OffersSent
	c.ContractsSent += r.ContractsSent
	c.SignedContracts += r.SignedContracts
}

// Outreach is SMS sent plus cold calls.
func (c Counts) Outreach() int { return c.SMSSent + c.ColdCalls }

// TotalLeads sums all four lead sources.
func (c Counts) TotalLeads() int { return c.SMSLeads + c.ColdCallLeads + c.MailLeads + c.InboundLeads }

// QualifiedLeads is hot plus warm.
func (c Counts) QualifiedLeads() int { return c.HotLeads + c.WarmLeads }

// Totals is the sum of every count across a record set plus the unweighted
// mean of the per-record SMS, cold-call and close rates.
type Totals struct {
	Records int `json:"records"`
	Counts
	AvgSMSRate      float64 `json:"avg_sms_rate"`
	AvgColdCallRate float64 `json:"avg_cold_call_rate"`
	AvgCloseRate    float64 `json:"avg_close_rate"`
}

// ComputeTotals sums records. Rate averages are means of per-record rates,
// not ratios of the summed counts.
func ComputeTotals(records []model.KPIRecord) Totals {
	var t Totals
	var sms, cold, closeSum float64
	for _, r := range records {
		t.add(r)
		sms += r.SMSLeadRate()
		cold += r.ColdCallRate()
		closeSum += r.CloseRate()
	}
	t.Records = len(records)
	t.AvgSMSRate = mean(sms, t.Records)
	t.AvgColdCallRate = mean(cold, t.Records)
	t.AvgCloseRate = mean(closeSum, t.Records)
	return t
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func average(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return mean(sum, len(vs))
}
