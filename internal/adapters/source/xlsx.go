package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// NameXLSX identifies the spreadsheet source in logs and metrics.
const NameXLSX = "xlsx"

// XLSX reads KPI rows from a local spreadsheet export. The first row holds
// the column names; every following non-empty row is a record.
type XLSX struct {
	path   string
	opts   options
	logger logger.Logger
}

// NewXLSX creates a spreadsheet source for the file at path.
func NewXLSX(path string, opts ...Option) *XLSX {
	o := newOptions(opts)
	return &XLSX{
		path:   path,
		opts:   o,
		logger: o.logger.With(logger.String("backend", NameXLSX)),
	}
}

// Name implements Source.
func (x *XLSX) Name() string { return NameXLSX }

// Fetch reads the whole sheet; the query is left to the caller's filter.
func (x *XLSX) Fetch(ctx context.Context, _ Query) ([]model.KPIRecord, error) {
	start := time.Now()
	records, err := x.read(ctx)
	if err != nil {
		metrics.RecordSourceFetch(NameXLSX, "error", elapsedMs(start))
		return nil, err
	}
	metrics.RecordSourceFetch(NameXLSX, "ok", elapsedMs(start))
	x.logger.Info(ctx, "records read",
		logger.String("path", x.path),
		logger.Int("records", len(records)),
	)
	return records, nil
}

func (x *XLSX) read(ctx context.Context) ([]model.KPIRecord, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrFetch, x.path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := x.opts.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, ErrNoSheet
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	// raw values keep date cells as serial numbers instead of display text
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	today := x.opts.today()
	records := make([]model.KPIRecord, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rowOf(headers, cells)
		if len(row) == 0 {
			continue
		}
		serialDates(row, date1904)
		rec, issues := MapRow(row, len(records)+1, today)
		reportIssues(ctx, x.logger, issues)
		records = append(records, rec)
	}
	return records, nil
}

// rowOf pairs cells with their headers, dropping blank cells and columns
// without a header.
func rowOf(headers, cells []string) Row {
	row := Row{}
	for i, cell := range cells {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		if strings.TrimSpace(cell) == "" {
			continue
		}
		row[headers[i]] = cell
	}
	return row
}

// serialDates replaces numeric date cells with the time they encode. Text
// dates are left for MapRow to parse.
func serialDates(row Row, date1904 bool) {
	for _, name := range dateColumns {
		v, ok := row[name].(string)
		if !ok {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
			row[name] = t
		}
	}
}
