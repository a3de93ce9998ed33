package source

import (
	"net/http"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

// Option configures a source. Options that do not apply to a given source are
// ignored by it.
type Option func(*options)

type options struct {
	logger    logger.Logger
	now       func() time.Time
	loc       *time.Location
	client    *http.Client
	timeout   time.Duration
	baseURL   string
	baseID    string
	tableID   string
	dateField string
	pageSize  int
	sheet     string
}

func newOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		loc:       time.Local,
		timeout:   defaultFetchTimeout,
		baseURL:   DefaultAirtableURL,
		baseID:    DefaultBaseID,
		tableID:   DefaultTableID,
		dateField: defaultDateField,
		pageSize:  defaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

// WithLogger sets the logger used to report fetches and field issues.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for the "today" default of undated rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the zone in which "today" is taken for undated rows.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func (o options) today() model.Date { return model.DateOf(o.now().In(o.loc)) }

// WithHTTPClient replaces the HTTP client used by remote sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBaseURL sets the Airtable API root, e.g. for a proxy or a test server.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithBase sets the Airtable base and table IDs.
func WithBase(baseID, tableID string) Option {
	return func(o *options) {
		if baseID != "" {
			o.baseID = baseID
		}
		if tableID != "" {
			o.tableID = tableID
		}
	}
}

// WithDateField sets the column name used in filter formulas.
func WithDateField(name string) Option {
	return func(o *options) {
		if name != "" {
			o.dateField = name
		}
	}
}

// WithPageSize sets the number of records requested per page (max 100).
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= maxPageSize {
			o.pageSize = n
		}
	}
}

// WithSheet selects the worksheet read by the spreadsheet source.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}
