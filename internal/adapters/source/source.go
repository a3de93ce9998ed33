// Package source provides the record sources that feed the dashboard:
// the Airtable REST API, a local spreadsheet export and a built-in fixture set.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// Query narrows what a source returns. Sources may return a superset; callers
// always re-apply the filter locally.
type Query struct {
	From   model.Date
	To     model.Date
	Period filter.Period
}

// QueryOf builds a Query from filter criteria.
func QueryOf(c filter.Criteria) Query {
	return Query{From: c.From, To: c.To, Period: c.Period}
}

// Key is a stable cache key for the query.
func (q Query) Key() string {
	return fmt.Sprintf("period=%s|from=%s|to=%s", q.Period, q.From, q.To)
}

// Source fetches KPI records.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]model.KPIRecord, error)
}

// reportIssues logs and counts defaulted fields.
func reportIssues(ctx context.Context, log logger.Logger, issues []FieldIssue) {
	for _, issue := range issues {
		metrics.RecordParseIssue(string(issue.Field))
		log.Warn(ctx, "field defaulted",
			logger.Int("row", issue.Row),
			logger.String("field", string(issue.Field)),
			logger.String("problem", issue.Problem),
			logger.Any("value", issue.Value),
		)
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
