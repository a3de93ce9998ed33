package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/kpiboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseDate(t *testing.T) {
	convey.Convey("Given date strings in the accepted formats", t, func() {
		want := model.NewDate(2025, time.March, 12)

		convey.Convey("Then ISO, timestamp and day-first forms parse to the same day", func() {
			for _, s := range []string{"2025-03-12", "2025-03-12T18:30:00.000Z", "12/03/2025", " 12/3/2025 "} {
				d, err := model.ParseDate(s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.Equal(want), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then a real leap day parses", func() {
			d, err := model.ParseDate("29/02/2024")
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.String(), convey.ShouldEqual, "2024-02-29")
		})

		convey.Convey("Then garbage and impossible days are rejected", func() {
			for _, s := range []string{"", "yesterday", "2025-13-01", "40/01/2025", "03/13/2025", "31/02/2025", "29/02/2025", "31/04/2025", "0/01/2025"} {
				_, err := model.ParseDate(s)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestDateArithmetic(t *testing.T) {
	convey.Convey("Given a Wednesday", t, func() {
		d := model.MustParseDate("2025-03-12")

		convey.Convey("WeekStart returns the Monday of that week", func() {
			convey.So(d.WeekStart().String(), convey.ShouldEqual, "2025-03-10")
		})

		convey.Convey("A Sunday belongs to the week started six days earlier", func() {
			convey.So(model.MustParseDate("2025-03-16").WeekStart().String(), convey.ShouldEqual, "2025-03-10")
		})

		convey.Convey("AddDays crosses month boundaries", func() {
			convey.So(d.AddDays(20).String(), convey.ShouldEqual, "2025-04-01")
			convey.So(d.AddDays(-1).Before(d), convey.ShouldBeTrue)
		})

		convey.Convey("In places midnight in the given location", func() {
			loc := time.FixedZone("UTC+3", 3*3600)
			convey.So(d.In(loc).Format(time.RFC3339), convey.ShouldEqual, "2025-03-12T00:00:00+03:00")
		})
	})
}

func TestDateJSON(t *testing.T) {
	convey.Convey("Dates round-trip through JSON and the zero date is null", t, func() {
		b, err := json.Marshal(model.MustParseDate("2025-03-12"))
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(b), convey.ShouldEqual, `"2025-03-12"`)

		b, err = json.Marshal(model.Date{})
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(b), convey.ShouldEqual, "null")

		var d model.Date
		convey.So(json.Unmarshal([]byte(`"12/03/2025"`), &d), convey.ShouldBeNil)
		convey.So(d.String(), convey.ShouldEqual, "2025-03-12")
	})
}
