package source

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Field names a KPI record attribute at the source boundary.
type Field string

const (
	FieldName            Field = "name"
	FieldDate            Field = "date"
	FieldSMSSent         Field = "sms_sent"
	FieldSMSLeads        Field = "sms_leads"
	FieldColdCalls       Field = "cold_calls"
	FieldColdCallLeads   Field = "cold_call_leads"
	FieldMailReceived    Field = "mail_received"
	FieldMailLeads       Field = "mail_leads"
	FieldInboundLeads    Field = "inbound_leads"
	FieldHotLeads        Field = "hot_leads"
	FieldWarmLeads       Field = "warm_leads"
	FieldCompared        Field = "compared_properties"
	FieldRejected        Field = "rejected_leads"
	FieldOffersSent      Field = "offers_sent"
	FieldContractsSent   Field = "contracts_sent"
	FieldSignedContracts Field = "signed_contracts"
)

// Row is one source row keyed by column name.
type Row map[string]any

// FieldIssue describes a value that was missing or malformed and replaced by
// a default.
type FieldIssue struct {
	Row     int    `json:"row"`
	Field   Field  `json:"field"`
	Value   any    `json:"value,omitempty"`
	Problem string `json:"problem"`
}

// String describes the issue for logs.
func (i FieldIssue) String() string {
	return fmt.Sprintf("row %d: %s %s (%v)", i.Row, i.Field, i.Problem, i.Value)
}

type countColumn struct {
	field Field
	names []string
	set   func(r *model.KPIRecord, v int)
}

// Accepted column names per field, in lookup order.
var (
	nameColumns = []string{"Name", "name"}
	dateColumns = []string{"Date", "date", "DATA", "Data"}

	countColumns = []countColumn{
		{FieldSMSSent, []string{"sms Sends", "SMS Send", "SMS Sends", "sms_send", "sms_sent"}, func(r *model.KPIRecord, v int) { r.SMSSent = v }},
		{FieldSMSLeads, []string{"SMS Leads", "sms_leads"}, func(r *model.KPIRecord, v int) { r.SMSLeads = v }},
		{FieldColdCalls, []string{"Cold Calls Made", "cold_calls_made", "cold_calls"}, func(r *model.KPIRecord, v int) { r.ColdCalls = v }},
		{FieldColdCallLeads, []string{"Cold Call Leads", "cold_call_leads"}, func(r *model.KPIRecord, v int) { r.ColdCallLeads = v }},
		{FieldMailReceived, []string{"Mail Calls Recived", "Mail Received", "mail_received"}, func(r *model.KPIRecord, v int) { r.MailReceived = v }},
		{FieldMailLeads, []string{"Mail Leads", "mail_leads"}, func(r *model.KPIRecord, v int) { r.MailLeads = v }},
		{FieldInboundLeads, []string{"Total Inbound leads", "Total Inbound Leads", "total_inbound_leads", "inbound_leads"}, func(r *model.KPIRecord, v int) { r.InboundLeads = v }},
		{FieldHotLeads, []string{"Hot Leads", "hot_leads"}, func(r *model.KPIRecord, v int) { r.HotLeads = v }},
		{FieldWarmLeads, []string{"Warm Leads", "warm_leads"}, func(r *model.KPIRecord, v int) { r.WarmLeads = v }},
		{FieldCompared, []string{"Compared Properties", "compared_properties"}, func(r *model.KPIRecord, v int) { r.Compared = v }},
		{FieldRejected, []string{"Rejected Leads", "rejected_leads"}, func(r *model.KPIRecord, v int) { r.Rejected = v }},
		{FieldOffersSent, []string{"Offers Sent", "offers_sent"}, func(r *model.KPIRecord, v int) { r.OffersSent = v }},
		{FieldContractsSent, []string{"Contracts Sent", "contracts_sent"}, func(r *model.KPIRecord, v int) { r.ContractsSent = v }},
		{FieldSignedContracts, []string{"Signed Contracts", "signed_contracts"}, func(r *model.KPIRecord, v int) { r.SignedContracts = v }},
	}
)

// MapRow converts one source row into a record. Missing names become
// model.UnknownName, missing or unparsable dates become today, and invalid or
// negative counts become 0. Each substitution except a missing count is
// reported as a FieldIssue. Precomputed rate columns are ignored.
func MapRow(row Row, id int, today model.Date) (model.KPIRecord, []FieldIssue) {
	var issues []FieldIssue
	report := func(f Field, v any, problem string) {
		issues = append(issues, FieldIssue{Row: id, Field: f, Value: v, Problem: problem})
	}

	rec := model.KPIRecord{ID: id, Name: model.UnknownName, Date: today}

	if v, ok := lookup(row, nameColumns); ok {
		if name, ok := toName(v); ok {
			rec.Name = name
		} else {
			report(FieldName, v, "invalid")
		}
	} else {
		report(FieldName, nil, "missing")
	}

	if v, ok := lookup(row, dateColumns); ok {
		if d, ok := toDate(v); ok {
			rec.Date = d
		} else {
			report(FieldDate, v, "invalid")
		}
	} else {
		report(FieldDate, nil, "missing")
	}

	for _, col := range countColumns {
		v, ok := lookup(row, col.names)
		if !ok {
			continue
		}
		n, problem := toCount(v)
		if problem != "" {
			report(col.field, v, problem)
			continue
		}
		col.set(&rec, n)
	}
	return rec, issues
}

// lookup returns the first present, non-blank value among names.
func lookup(row Row, names []string) (any, bool) {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func toName(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case []any:
		// lookup and linked-record columns arrive as arrays
		if len(x) > 0 {
			return toName(x[0])
		}
	}
	return "", false
}

func toDate(v any) (model.Date, bool) {
	switch x := v.(type) {
	case string:
		d, err := model.ParseDate(x)
		return d, err == nil
	case time.Time:
		return model.DateOf(x), !x.IsZero()
	case []any:
		if len(x) > 0 {
			return toDate(x[0])
		}
	}
	return model.Date{}, false
}

// toCount returns the count and an empty problem, or a problem description.
func toCount(v any) (int, string) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, "invalid"
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		if err != nil {
			return 0, "invalid"
		}
		f = parsed
	case []any:
		if len(x) == 1 {
			return toCount(x[0])
		}
		return 0, "invalid"
	default:
		return 0, "invalid"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "invalid"
	}
	if f < 0 {
		return 0, "negative"
	}
	return int(math.Round(f)), ""
}
