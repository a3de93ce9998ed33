package source

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/kpiboard/internal/domain/model"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "kpi.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestXLSXFetch(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) }

	Convey("Given a spreadsheet export with a header row", t, func() {
		path := writeWorkbook(t, "KPI", [][]any{
			{"Name", "Date", "sms Sends", "SMS Leads", "Hot Leads", "Warm Leads", "Offers Sent", "Signed Contracts", ""},
			{"Jhaniel Repuela", "2025-03-12", 123, 12, 4, 12, 4, 1, "ignored"},
			{},
			{"Lana Brown", "11/03/2025", 145, 95, 5, 8, 3, 1},
			{"", "", "x"},
		})

		Convey("Data rows become records and blank rows are skipped", func() {
			records, err := NewXLSX(path, WithSheet("KPI"), WithClock(now)).Fetch(context.Background(), Query{})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 3)

			So(records[0].ID, ShouldEqual, 1)
			So(records[0].Name, ShouldEqual, "Jhaniel Repuela")
			So(records[0].SMSLeadRate(), ShouldEqual, 10.0)
			So(records[0].QualificationRate(), ShouldEqual, 25.0)

			So(records[1].Date, ShouldEqual, model.NewDate(2025, 3, 11))
			So(records[1].SignedContracts, ShouldEqual, 1)

			So(records[2].Name, ShouldEqual, model.UnknownName)
			So(records[2].Date, ShouldEqual, model.NewDate(2025, 3, 12))
			So(records[2].SMSSent, ShouldEqual, 0)
		})

		Convey("The first sheet is used when none is named", func() {
			records, err := NewXLSX(path).Fetch(context.Background(), Query{})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 3)
		})

		Convey("A missing sheet is an error", func() {
			_, err := NewXLSX(path, WithSheet("Nope")).Fetch(context.Background(), Query{})
			So(errors.Is(err, ErrNoSheet), ShouldBeTrue)
		})
	})

	Convey("Given date cells typed as Excel dates", t, func() {
		later := func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
		path := writeWorkbook(t, "Sheet1", [][]any{
			{"Name", "Date", "sms Sends"},
			{"Gina", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), 10},
			{"Ian", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 1234},
		})

		Convey("The cell date is kept instead of today", func() {
			records, err := NewXLSX(path, WithClock(later)).Fetch(context.Background(), Query{})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[0].Date, ShouldEqual, model.NewDate(2025, 3, 12))
			So(records[0].SMSSent, ShouldEqual, 10)
			So(records[1].Date, ShouldEqual, model.NewDate(2024, 12, 31))
			So(records[1].SMSSent, ShouldEqual, 1234)
		})
	})

	Convey("Given an undated row read late in the UTC day", t, func() {
		lateUTC := func() time.Time { return time.Date(2025, 3, 12, 23, 30, 0, 0, time.UTC) }
		path := writeWorkbook(t, "Sheet1", [][]any{
			{"Name", "sms Sends"},
			{"Gina", 10},
		})
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		So(err, ShouldBeNil)

		Convey("Today is taken in the configured zone", func() {
			records, err := NewXLSX(path, WithClock(lateUTC), WithLocation(tokyo)).Fetch(context.Background(), Query{})
			So(err, ShouldBeNil)
			So(records[0].Date, ShouldEqual, model.NewDate(2025, 3, 13))

			records, err = NewXLSX(path, WithClock(lateUTC), WithLocation(time.UTC)).Fetch(context.Background(), Query{})
			So(err, ShouldBeNil)
			So(records[0].Date, ShouldEqual, model.NewDate(2025, 3, 12))
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := NewXLSX(filepath.Join(t.TempDir(), "missing.xlsx")).Fetch(context.Background(), Query{})
		So(errors.Is(err, ErrFetch), ShouldBeTrue)
	})
}
