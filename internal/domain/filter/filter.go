// Package filter narrows a record set to a member and time window before it
// reaches the aggregation engine.
package filter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Period selects a preset time window.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// AllMembers disables the member filter.
const AllMembers = "all"

// ParsePeriod accepts the preset names plus the long forms "this-week" and
// "this-month".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PeriodAll, nil
	case "today":
		return PeriodToday, nil
	case "week", "this-week":
		return PeriodWeek, nil
	case "month", "this-month":
		return PeriodMonth, nil
	case "custom", "custom-range":
		return PeriodCustom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Criteria is the active filter selection. Zero From/To mean unbounded.
type Criteria struct {
	Member string
	Period Period
	From   model.Date
	To     model.Date
}

// HasRange reports whether an explicit date bound is set.
func (c Criteria) HasRange() bool { return !c.From.IsZero() || !c.To.IsZero() }

// Validate checks the period and that From is not after To.
func (c Criteria) Validate() error {
	if _, err := ParsePeriod(string(c.Period)); err != nil {
		return err
	}
	if !c.From.IsZero() && !c.To.IsZero() && c.From.After(c.To) {
		return fmt.Errorf("%w: from %s after to %s", ErrInvalidRange, c.From, c.To)
	}
	return nil
}

// ParseCriteria reads member, period, from and to from a query string.
func ParseCriteria(q url.Values) (Criteria, error) {
	var c Criteria
	c.Member = strings.TrimSpace(q.Get("member"))
	p, err := ParsePeriod(q.Get("period"))
	if err != nil {
		return Criteria{}, err
	}
	c.Period = p
	if s := q.Get("from"); s != "" {
		if c.From, err = model.ParseDate(s); err != nil {
			return Criteria{}, fmt.Errorf("%w: from: %v", ErrInvalidDate, err)
		}
	}
	if s := q.Get("to"); s != "" {
		if c.To, err = model.ParseDate(s); err != nil {
			return Criteria{}, fmt.Errorf("%w: to: %v", ErrInvalidDate, err)
		}
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Apply returns the records matching c, in their original order. The input
// slice is not modified. canon, when non-nil, resolves names to their
// canonical form before comparing members.
func Apply(records []model.KPIRecord, c Criteria, now time.Time, loc *time.Location, canon func(string) string) []model.KPIRecord {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	keepMember := memberMatcher(c.Member, canon)
	keepDate := dateMatcher(c, now, loc)

	out := make([]model.KPIRecord, 0, len(records))
	for _, r := range records {
		if keepMember(r) && keepDate(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

func memberMatcher(member string, canon func(string) string) func(model.KPIRecord) bool {
	member = strings.TrimSpace(member)
	if member == "" || strings.EqualFold(member, AllMembers) {
		return func(model.KPIRecord) bool { return true }
	}
	if canon == nil {
		return func(r model.KPIRecord) bool { return strings.EqualFold(r.Identity(), member) }
	}
	want := canon(member)
	return func(r model.KPIRecord) bool { return strings.EqualFold(canon(r.Identity()), want) }
}

func dateMatcher(c Criteria, now time.Time, loc *time.Location) func(model.Date) bool {
	if c.HasRange() {
		return func(d model.Date) bool {
			if !c.From.IsZero() && d.Before(c.From) {
				return false
			}
			if !c.To.IsZero() && d.After(c.To) {
				return false
			}
			return true
		}
	}

	var since time.Time
	switch c.Period {
	case PeriodToday:
		y, m, d := now.Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case PeriodWeek:
		since = now.AddDate(0, 0, -7)
	case PeriodMonth:
		since = now.AddDate(0, 0, -30)
	default:
		return func(model.Date) bool { return true }
	}
	return func(d model.Date) bool { return !d.In(loc).Before(since) }
}
