package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// Airtable defaults.
const (
	DefaultAirtableURL = "https://api.airtable.com/v0"
	DefaultBaseID      = "appEzxAgICoJK3bFa"
	DefaultTableID     = "tblHHCUcIFMR0p80Z"

	defaultDateField    = "Date"
	defaultPageSize     = 100
	maxPageSize         = 100
	defaultFetchTimeout = 15 * time.Second
	maxErrorBody        = 4 << 10
	maxPages            = 500
)

// NameAirtable identifies the Airtable source in logs and metrics.
const NameAirtable = "airtable"

// Airtable reads KPI rows from an Airtable table over its REST API.
type Airtable struct {
	apiKey string
	opts   options
	client *http.Client
	logger logger.Logger
}

// NewAirtable creates an Airtable source authenticated with apiKey.
func NewAirtable(apiKey string, opts ...Option) *Airtable {
	o := newOptions(opts)
	client := o.client
	if client == nil {
		client = &http.Client{Timeout: o.timeout}
	}
	return &Airtable{
		apiKey: strings.TrimSpace(apiKey),
		opts:   o,
		client: client,
		logger: o.logger.With(logger.String("backend", NameAirtable)),
	}
}

// Name implements Source.
func (a *Airtable) Name() string { return NameAirtable }

type airtableRecord struct {
	ID     string `json:"id"`
	Fields Row    `json:"fields"`
}

type airtablePage struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

// Fetch walks every page of the table matching the query's formula.
func (a *Airtable) Fetch(ctx context.Context, q Query) ([]model.KPIRecord, error) {
	if a.apiKey == "" {
		return nil, ErrMissingCredentials
	}
	start := time.Now()
	formula := Formula(q, a.opts.dateField)
	today := a.opts.today()

	var out []model.KPIRecord
	offset := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			metrics.RecordSourceFetch(NameAirtable, "error", elapsedMs(start))
			return nil, fmt.Errorf("%w: more than %d pages", ErrFetch, maxPages)
		}
		p, err := a.fetchPage(ctx, formula, offset)
		if err != nil {
			metrics.RecordSourceFetch(NameAirtable, "error", elapsedMs(start))
			return nil, err
		}
		for _, rec := range p.Records {
			r, issues := MapRow(rec.Fields, len(out)+1, today)
			reportIssues(ctx, a.logger, issues)
			out = append(out, r)
		}
		a.logger.Debug(ctx, "page fetched",
			logger.Int("page", page),
			logger.Int("records", len(p.Records)),
			logger.Int("total", len(out)),
		)
		if p.Offset == "" {
			break
		}
		offset = p.Offset
	}

	metrics.RecordSourceFetch(NameAirtable, "ok", elapsedMs(start))
	a.logger.Info(ctx, "records fetched",
		logger.Int("records", len(out)),
		logger.String("formula", formula),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (a *Airtable) fetchPage(ctx context.Context, formula, offset string) (*airtablePage, error) {
	endpoint := strings.TrimRight(a.opts.baseURL, "/") + "/" + url.PathEscape(a.opts.baseID) + "/" + url.PathEscape(a.opts.tableID)

	params := url.Values{}
	if formula != "" {
		params.Set("filterByFormula", formula)
	}
	params.Set("pageSize", strconv.Itoa(a.opts.pageSize))
	if offset != "" {
		params.Set("offset", offset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, strings.TrimSpace(string(body)))
	}

	var page airtablePage
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &page, nil
}

// Formula builds an Airtable filterByFormula expression for q. The result is
// a superset of what the local filter keeps: bounds are inclusive and preset
// windows carry one extra day to absorb time zone differences between the
// API and the service. An empty string means no filter.
func Formula(q Query, dateField string) string {
	if dateField == "" {
		dateField = defaultDateField
	}
	field := "{" + dateField + "}"

	if !q.From.IsZero() || !q.To.IsZero() {
		var terms []string
		if !q.From.IsZero() {
			terms = append(terms, fmt.Sprintf("NOT(IS_BEFORE(%s, '%s'))", field, q.From))
		}
		if !q.To.IsZero() {
			terms = append(terms, fmt.Sprintf("NOT(IS_AFTER(%s, '%s'))", field, q.To))
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return "AND(" + strings.Join(terms, ", ") + ")"
	}

	switch q.Period {
	case filter.PeriodToday:
		return windowFormula(field, 1)
	case filter.PeriodWeek:
		return windowFormula(field, 8)
	case filter.PeriodMonth:
		return windowFormula(field, 31)
	default:
		return ""
	}
}

func windowFormula(field string, days int) string {
	return fmt.Sprintf("NOT(IS_BEFORE(%s, DATEADD(TODAY(), -%d, 'days')))", field, days)
}
