// Package export renders a filtered record set and its aggregates as an
// xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/internal/domain/model"
)

// Sheet names in workbook order.
const (
	SheetRecords = "Records"
	SheetTotals  = "Totals"
	SheetMembers = "Members"
	SheetRoles   = "Roles"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var recordHeaders = []string{
	"ID", "Name", "Member", "Date",
	"SMS Sent", "SMS Leads", "Cold Calls", "Cold Call Leads", "Mail Received", "Mail Leads",
	"Inbound Leads", "Hot Leads", "Warm Leads", "Cold Leads", "Compared Properties", "Rejected Leads",
	"Offers Sent", "Contracts Sent", "Signed Contracts",
	"SMS Rate %", "Cold Call Rate %", "Close Rate %", "Badge",
}

var memberHeaders = []string{
	"Member", "Role", "Records", "Outreach", "Total Leads", "Qualified Leads",
	"Offers Sent", "Signed Contracts", "Avg SMS Rate %", "Avg Cold Call Rate %", "Avg Close Rate %", "Badge",
}

var roleHeaders = []string{"Role", "Metric", "Rank", "Member", "Score", "Rate %", "Detail"}

// Workbook builds the export file. The caller closes it.
func Workbook(records []model.KPIRecord, d aggregate.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTotals, SheetMembers, SheetRoles} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	steps := []func(*excelize.File, int) error{
		func(f *excelize.File, style int) error { return writeRecords(f, style, records) },
		func(f *excelize.File, style int) error { return writeTotals(f, style, d) },
		func(f *excelize.File, style int) error { return writeMembers(f, style, d.Members) },
		func(f *excelize.File, style int) error { return writeRoles(f, style, d.Roles) },
	}
	for _, step := range steps {
		if err := step(f, headerStyle); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, records []model.KPIRecord, d aggregate.Dashboard) error {
	f, err := Workbook(records, d)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, style int, records []model.KPIRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, r.Name, r.Identity(), r.Date.String(),
			r.SMSSent, r.SMSLeads, r.ColdCalls, r.ColdCallLeads, r.MailReceived, r.MailLeads,
			r.InboundLeads, r.HotLeads, r.WarmLeads, r.ColdLeads(), r.Compared, r.Rejected,
			r.OffersSent, r.ContractsSent, r.SignedContracts,
			r.SMSLeadRate(), r.ColdCallRate(), r.CloseRate(), string(aggregate.Badge(r.CloseRate())),
		})
	}
	if err := writeTable(f, SheetRecords, style, recordHeaders, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetRecords, "B", "C", 22)
	_ = f.SetColWidth(SheetRecords, "D", "D", 12)
	return nil
}

func writeTotals(f *excelize.File, style int, d aggregate.Dashboard) error {
	t := d.Totals
	rows := [][]any{
		{"Records", t.Records},
		{"SMS Sent", t.SMSSent},
		{"SMS Leads", t.SMSLeads},
		{"Cold Calls", t.ColdCalls},
		{"Cold Call Leads", t.ColdCallLeads},
		{"Mail Received", t.MailReceived},
		{"Mail Leads", t.MailLeads},
		{"Inbound Leads", t.InboundLeads},
		{"Hot Leads", t.HotLeads},
		{"Warm Leads", t.WarmLeads},
		{"Cold Leads", t.ColdLeads},
		{"Compared Properties", t.Compared},
		{"Rejected Leads", t.Rejected},
		{"Offers Sent", t.OffersSent},
		{"Contracts Sent", t.ContractsSent},
		{"Signed Contracts", t.SignedContracts},
		{"Avg SMS Rate %", t.AvgSMSRate},
		{"Avg Cold Call Rate %", t.AvgColdCallRate},
		{"Avg Close Rate %", t.AvgCloseRate},
	}
	for _, s := range d.Stages {
		rows = append(rows, []any{fmt.Sprintf("%s to %s %%", s.From, s.To), s.Rate})
	}
	rows = append(rows, []any{"Overall Funnel %", d.Funnel.Overall})

	if err := writeTable(f, SheetTotals, style, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetTotals, "A", "A", 30)
	return nil
}

func writeMembers(f *excelize.File, style int, members []aggregate.MemberView) error {
	rows := make([][]any, 0, len(members))
	for _, m := range members {
		rows = append(rows, []any{
			m.Member, string(m.Role), m.Records, m.Outreach(), m.TotalLeads(), m.QualifiedLeads(),
			m.OffersSent, m.SignedContracts, m.AvgSMSRate, m.AvgColdCallRate, m.AvgCloseRate, string(m.Badge),
		})
	}
	if err := writeTable(f, SheetMembers, style, memberHeaders, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetMembers, "A", "B", 22)
	return nil
}

func writeRoles(f *excelize.File, style int, rankings []aggregate.RoleRanking) error {
	var rows [][]any
	for _, rr := range rankings {
		for i, m := range rr.Top {
			rows = append(rows, []any{rr.Label, rr.MetricLabel, i + 1, m.Member, m.Score, m.Rate, m.Detail})
		}
	}
	if err := writeTable(f, SheetRoles, style, roleHeaders, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetRoles, "A", "B", 24)
	_ = f.SetColWidth(SheetRoles, "D", "D", 22)
	return nil
}

func writeTable(f *excelize.File, sheet string, style int, headers []string, rows [][]any) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
