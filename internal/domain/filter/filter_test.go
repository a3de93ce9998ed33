package filter_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/okian/kpiboard/internal/domain/filter"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(id int, name, date string) model.KPIRecord {
	return model.KPIRecord{ID: id, Name: name, Member: name, Date: model.MustParseDate(date)}
}

func ids(rs []model.KPIRecord) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, time.March, 12, 15, 0, 0, 0, loc)
	records := []model.KPIRecord{
		rec(1, "Alex", "2025-03-12"),
		rec(2, "Kyle", "2025-03-11"),
		rec(3, "Zia", "2025-03-06"),
		rec(4, "Alex", "2025-03-05"),
		rec(5, "Leah", "2025-02-11"),
		rec(6, "Gina", "2025-01-01"),
	}
	canon := settings.DefaultAliases().Canonical

	Convey("Given a record set spanning several weeks", t, func() {
		Convey("An empty selection passes everything through in order", func() {
			got := filter.Apply(records, filter.Criteria{}, now, loc, nil)
			So(ids(got), ShouldResemble, []int{1, 2, 3, 4, 5, 6})
		})

		Convey("Member all is a pass-through", func() {
			got := filter.Apply(records, filter.Criteria{Member: "all"}, now, loc, canon)
			So(len(got), ShouldEqual, len(records))
		})

		Convey("Member filter matches alias-normalized names", func() {
			got := filter.Apply(records, filter.Criteria{Member: "Alex"}, now, loc, canon)
			So(ids(got), ShouldResemble, []int{1, 2, 4})

			got = filter.Apply(records, filter.Criteria{Member: "leah"}, now, loc, canon)
			So(ids(got), ShouldResemble, []int{3, 5})
		})

		Convey("A canonical name matches regardless of case", func() {
			for _, m := range []string{"alex", "ALEX", "kyle"} {
				got := filter.Apply(records, filter.Criteria{Member: m}, now, loc, canon)
				So(ids(got), ShouldResemble, []int{1, 2, 4})
			}
		})

		Convey("Without a canonicalizer aliases are not followed", func() {
			got := filter.Apply(records, filter.Criteria{Member: "alex"}, now, loc, nil)
			So(ids(got), ShouldResemble, []int{1, 4})
		})

		Convey("Today keeps records on or after local midnight", func() {
			got := filter.Apply(records, filter.Criteria{Period: filter.PeriodToday}, now, loc, nil)
			So(ids(got), ShouldResemble, []int{1})
		})

		Convey("Week subtracts seven days from now", func() {
			got := filter.Apply(records, filter.Criteria{Period: filter.PeriodWeek}, now, loc, nil)
			So(ids(got), ShouldResemble, []int{1, 2, 3})
		})

		Convey("Month subtracts thirty days from now", func() {
			got := filter.Apply(records, filter.Criteria{Period: filter.PeriodMonth}, now, loc, nil)
			So(ids(got), ShouldResemble, []int{1, 2, 3, 4, 5})
		})

		Convey("A custom range is inclusive on both ends", func() {
			c := filter.Criteria{
				Period: filter.PeriodCustom,
				From:   model.MustParseDate("2025-03-05"),
				To:     model.MustParseDate("2025-03-11"),
			}
			So(ids(filter.Apply(records, c, now, loc, nil)), ShouldResemble, []int{2, 3, 4})
		})

		Convey("Explicit dates take precedence over a preset period", func() {
			c := filter.Criteria{Period: filter.PeriodToday, From: model.MustParseDate("2025-01-01"), To: model.MustParseDate("2025-02-28")}
			So(ids(filter.Apply(records, c, now, loc, nil)), ShouldResemble, []int{5, 6})
		})

		Convey("An open-ended range keeps everything past the bound", func() {
			c := filter.Criteria{From: model.MustParseDate("2025-03-06")}
			So(ids(filter.Apply(records, c, now, loc, nil)), ShouldResemble, []int{1, 2, 3})
		})

		Convey("The input slice is left untouched", func() {
			before := ids(records)
			_ = filter.Apply(records, filter.Criteria{Member: "Gina"}, now, loc, canon)
			So(ids(records), ShouldResemble, before)
		})
	})
}

func TestParseCriteria(t *testing.T) {
	Convey("Given query strings", t, func() {
		Convey("Valid parameters parse", func() {
			q := url.Values{"member": {"Alex"}, "period": {"this-week"}, "from": {"2025-03-01"}, "to": {"2025-03-10"}}
			c, err := filter.ParseCriteria(q)
			So(err, ShouldBeNil)
			So(c.Member, ShouldEqual, "Alex")
			So(c.Period, ShouldEqual, filter.PeriodWeek)
			So(c.From.String(), ShouldEqual, "2025-03-01")
			So(c.HasRange(), ShouldBeTrue)
		})

		Convey("Missing parameters default to all", func() {
			c, err := filter.ParseCriteria(url.Values{})
			So(err, ShouldBeNil)
			So(c.Period, ShouldEqual, filter.PeriodAll)
			So(c.HasRange(), ShouldBeFalse)
		})

		Convey("Bad values are rejected with typed errors", func() {
			_, err := filter.ParseCriteria(url.Values{"period": {"fortnight"}})
			So(errors.Is(err, filter.ErrInvalidPeriod), ShouldBeTrue)

			_, err = filter.ParseCriteria(url.Values{"from": {"soon"}})
			So(errors.Is(err, filter.ErrInvalidDate), ShouldBeTrue)

			_, err = filter.ParseCriteria(url.Values{"from": {"2025-03-10"}, "to": {"2025-03-01"}})
			So(errors.Is(err, filter.ErrInvalidRange), ShouldBeTrue)
		})
	})
}
