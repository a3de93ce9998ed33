// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"math"
)

// UnknownName is used when a source row carries no member name.
const UnknownName = "Unknown"

// KPIRecord is one row of team activity for a (member, date) pair.
// Rates are not stored; they are derived from the counts on every call.
type KPIRecord struct {
	ID     int
	Name   string // raw name as delivered by the source
	Member string // canonical identity, resolved at ingestion
	Date   Date

	// outreach
	SMSSent       int
	SMSLeads      int
	ColdCalls     int
	ColdCallLeads int
	MailReceived  int
	MailLeads     int

	// inbound
	InboundLeads int
	HotLeads     int
	WarmLeads    int

	// pipeline
	Compared        int
	Rejected        int
	OffersSent      int
	ContractsSent   int
	SignedContracts int
}

// Rate returns round(num/den*100), or 0 when den is not positive.
func Rate(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return math.Round(float64(num) / float64(den) * 100)
}

// Percent returns num/den*100 without rounding, or 0 when den is zero.
func Percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

// Identity returns the canonical member name, falling back to the raw name
// for records that never went through ingestion.
func (r KPIRecord) Identity() string {
	if r.Member != "" {
		return r.Member
	}
	return r.Name
}

// ColdLeads is the inbound volume not classified hot or warm, floored at zero.
func (r KPIRecord) ColdLeads() int {
	return max(0, r.InboundLeads-r.HotLeads-r.WarmLeads)
}

// QualifiedLeads is hot plus warm.
func (r KPIRecord) QualifiedLeads() int { return r.HotLeads + r.WarmLeads }

// TotalLeads sums every lead source.
func (r KPIRecord) TotalLeads() int {
	return r.SMSLeads + r.ColdCallLeads + r.MailLeads + r.InboundLeads
}

// Outreach is SMS sent plus cold calls made.
func (r KPIRecord) Outreach() int { return r.SMSSent + r.ColdCalls }

// SMSLeadRate is SMS leads per SMS sent, in percent.
func (r KPIRecord) SMSLeadRate() float64 { return Rate(r.SMSLeads, r.SMSSent) }

// ColdCallRate is cold-call leads per call made, in percent.
func (r KPIRecord) ColdCallRate() float64 { return Rate(r.ColdCallLeads, r.ColdCalls) }

// QualificationRate is the hot share of qualified leads, in percent.
func (r KPIRecord) QualificationRate() float64 { return Rate(r.HotLeads, r.QualifiedLeads()) }

// LeadToOfferRate is offers sent per qualified lead, in percent.
func (r KPIRecord) LeadToOfferRate() float64 { return Rate(r.OffersSent, r.QualifiedLeads()) }

// CloseRate is signed contracts per offer sent, in percent.
func (r KPIRecord) CloseRate() float64 { return Rate(r.SignedContracts, r.OffersSent) }

// Clamp returns a copy with negative counts replaced by zero.
func (r KPIRecord) Clamp() KPIRecord {
	for _, p := range r.counts() {
		if *p < 0 {
			*p = 0
		}
	}
	return r
}

func (r *KPIRecord) counts() []*int {
	return []*int{
		&r.SMSSent, &r.SMSLeads, &r.ColdCalls, &r.ColdCallLeads, &r.MailReceived, &r.MailLeads,
		&r.InboundLeads, &r.HotLeads, &r.WarmLeads,
		&r.Compared, &r.Rejected, &r.OffersSent, &r.ContractsSent, &r.SignedContracts,
	}
}

// recordJSON is the wire shape, rates included.
type recordJSON struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Member            string  `json:"member"`
	Date              Date    `json:"date"`
	SMSSent           int     `json:"sms_sent"`
	SMSLeads          int     `json:"sms_leads"`
	ColdCalls         int     `json:"cold_calls"`
	ColdCallLeads     int     `json:"cold_call_leads"`
	MailReceived      int     `json:"mail_received"`
	MailLeads         int     `json:"mail_leads"`
	InboundLeads      int     `json:"inbound_leads"`
	HotLeads          int     `json:"hot_leads"`
	WarmLeads         int     `json:"warm_leads"`
	ColdLeads         int     `json:"cold_leads"`
	Compared          int     `json:"compared_properties"`
	Rejected          int     `json:"rejected_leads"`
	OffersSent        int     `json:"offers_sent"`
	ContractsSent     int     `json:"contracts_sent"`
	SignedContracts   int     `json:"signed_contracts"`
	SMSLeadRate       float64 `json:"sms_lead_rate"`
	ColdCallRate      float64 `json:"cold_call_rate"`
	QualificationRate float64 `json:"qualification_rate"`
	LeadToOfferRate   float64 `json:"lead_to_offer_rate"`
	CloseRate         float64 `json:"close_rate"`
}

// MarshalJSON encodes the record with its derived rates.
func (r KPIRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                r.ID,
		Name:              r.Name,
		Member:            r.Identity(),
		Date:              r.Date,
		SMSSent:           r.SMSSent,
		SMSLeads:          r.SMSLeads,
		ColdCalls:         r.ColdCalls,
		ColdCallLeads:     r.ColdCallLeads,
		MailReceived:      r.MailReceived,
		MailLeads:         r.MailLeads,
		InboundLeads:      r.InboundLeads,
		HotLeads:          r.HotLeads,
		WarmLeads:         r.WarmLeads,
		ColdLeads:         r.ColdLeads(),
		Compared:          r.Compared,
		Rejected:          r.Rejected,
		OffersSent:        r.OffersSent,
		ContractsSent:     r.ContractsSent,
		SignedContracts:   r.SignedContracts,
		SMSLeadRate:       r.SMSLeadRate(),
		ColdCallRate:      r.ColdCallRate(),
		QualificationRate: r.QualificationRate(),
		LeadToOfferRate:   r.LeadToOfferRate(),
		CloseRate:         r.CloseRate(),
	})
}

// UnmarshalJSON decodes the wire shape; derived fields are ignored.
func (r *KPIRecord) UnmarshalJSON(b []byte) error {
	var w recordJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = KPIRecord{
		ID:              w.ID,
		Name:            w.Name,
		Member:          w.Member,
		Date:            w.Date,
		SMSSent:         w.SMSSent,
		SMSLeads:        w.SMSLeads,
		ColdCalls:       w.ColdCalls,
		ColdCallLeads:   w.ColdCallLeads,
		MailReceived:    w.MailReceived,
		MailLeads:       w.MailLeads,
		InboundLeads:    w.InboundLeads,
		HotLeads:        w.HotLeads,
		WarmLeads:       w.WarmLeads,
		Compared:        w.Compared,
		Rejected:        w.Rejected,
		OffersSent:      w.OffersSent,
		ContractsSent:   w.ContractsSent,
		SignedContracts: w.SignedContracts,
	}
	return nil
}
