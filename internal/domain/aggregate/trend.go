package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Granularity selects the trend bucket size.
type Granularity string

const (
	Daily  Granularity = "daily"
	Weekly Granularity = "weekly"
)

// ParseGranularity defaults to Daily for an empty string.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Daily):
		return Daily, nil
	case string(Weekly):
		return Weekly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// TrendBucket is one point on the trend chart.
type TrendBucket struct {
	Start    model.Date `json:"start"`
	End      model.Date `json:"end"`
	Label    string     `json:"label"`
	Leads    int        `json:"leads"`
	Offers   int        `json:"offers"`
	Signed   int        `json:"signed"`
	Outreach int        `json:"outreach"`
}

func (b *TrendBucket) add(r model.KPIRecord) {
	b.Leads += r.TotalLeads()
	b.Offers += r.OffersSent
	b.Signed += r.SignedContracts
	b.Outreach += r.Outreach()
}

// ComputeTrend buckets records by day or by Monday-start week and returns
// the buckets in ascending date order. Records without a date are skipped.
func ComputeTrend(records []model.KPIRecord, g Granularity) []TrendBucket {
	key := func(d model.Date) model.Date { return d }
	if g == Weekly {
		key = model.Date.WeekStart
	}

	buckets := make(map[model.Date]*TrendBucket)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		start := key(r.Date)
		b, ok := buckets[start]
		if !ok {
			b = newBucket(start, g)
			buckets[start] = b
		}
		b.add(r)
	}

	out := make([]TrendBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func newBucket(start model.Date, g Granularity) *TrendBucket {
	b := &TrendBucket{Start: start, End: start, Label: start.Format("Jan 02")}
	if g != Weekly {
		return b
	}
	b.End = start.AddDays(6)
	if b.End.Format("Jan") == start.Format("Jan") {
		b.Label = fmt.Sprintf("%s - %s", start.Format("Jan 02"), b.End.Format("02"))
	} else {
		b.Label = fmt.Sprintf("%s - %s", start.Format("Jan 02"), b.End.Format("Jan 02"))
	}
	return b
}
