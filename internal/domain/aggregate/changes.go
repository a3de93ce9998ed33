package aggregate

import (
	"sort"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Tracked day-over-day metrics.
const (
	MetricSMSSent         = "sms_sent"
	MetricColdCalls       = "cold_calls"
	MetricInboundLeads    = "inbound_leads"
	MetricHotLeads        = "hot_leads"
	MetricOffersSent      = "offers_sent"
	MetricSignedContracts = "signed_contracts"
	MetricAvgSMSRate      = "avg_sms_rate"
	MetricAvgCloseRate    = "avg_close_rate"
)

// Changes compares the two most recent dates in a record set. A nil delta
// means no comparison is possible.
type Changes struct {
	Current  model.Date          `json:"current"`
	Previous model.Date          `json:"previous"`
	Deltas   map[string]*float64 `json:"deltas"`
}

// ComputeDayOverDayChange compares totals of the latest date against the
// date before it. ok is false when fewer than two distinct dates exist.
func ComputeDayOverDayChange(records []model.KPIRecord) (Changes, bool) {
	byDate := make(map[model.Date][]model.KPIRecord)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	if len(byDate) < 2 {
		return Changes{}, false
	}

	dates := make([]model.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	cur, prev := dates[0], dates[1]
	today := metricValues(ComputeTotals(byDate[cur]))
	yesterday := metricValues(ComputeTotals(byDate[prev]))

	c := Changes{Current: cur, Previous: prev, Deltas: make(map[string]*float64, len(today))}
	for name, t := range today {
		c.Deltas[name] = Delta(t, yesterday[name])
	}
	return c, true
}

// Delta is (today-yesterday)/yesterday*100. From zero it is 100 when today
// is positive and nil when both are zero.
func Delta(today, yesterday float64) *float64 {
	var d float64
	switch {
	case yesterday != 0:
		d = (today - yesterday) / yesterday * 100
	case today > 0:
		d = 100
	default:
		return nil
	}
	return &d
}

func metricValues(t Totals) map[string]float64 {
	return map[string]float64{
		MetricSMSSent:         float64(t.SMSSent),
		MetricColdCalls:       float64(t.ColdCalls),
		MetricInboundLeads:    float64(t.InboundLeads),
		MetricHotLeads:        float64(t.HotLeads),
		MetricOffersSent:      float64(t.OffersSent),
		MetricSignedContracts: float64(t.SignedContracts),
		MetricAvgSMSRate:      t.AvgSMSRate,
		MetricAvgCloseRate:    t.AvgCloseRate,
	}
}
