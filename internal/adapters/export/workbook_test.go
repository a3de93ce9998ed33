package export

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/kpiboard/internal/adapters/source"
	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/internal/domain/settings"
)

func TestWorkbook(t *testing.T) {
	Convey("Given the fixture records and their dashboard", t, func() {
		st := settings.Defaults()
		records := st.Aliases.Resolve(source.FixtureRecords())
		d := aggregate.Build(records, st, aggregate.Options{})

		Convey("The workbook has one sheet per view", func() {
			f, err := Workbook(records, d)
			So(err, ShouldBeNil)
			defer f.Close()

			So(f.GetSheetList(), ShouldResemble, []string{SheetRecords, SheetTotals, SheetMembers, SheetRoles})

			rows, err := f.GetRows(SheetRecords)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, len(records)+1)
			So(rows[0][1], ShouldEqual, "Name")
			So(rows[1][1], ShouldEqual, "Jhaniel Repuela")
			So(rows[1][3], ShouldEqual, "2025-03-12")

			totals, err := f.GetRows(SheetTotals)
			So(err, ShouldBeNil)
			So(totals[1], ShouldResemble, []string{"Records", "5"})

			members, err := f.GetRows(SheetMembers)
			So(err, ShouldBeNil)
			So(len(members), ShouldEqual, 4)
		})

		Convey("Write produces a readable xlsx stream", func() {
			var buf bytes.Buffer
			So(Write(&buf, records, d), ShouldBeNil)

			f, err := excelize.OpenReader(&buf)
			So(err, ShouldBeNil)
			defer f.Close()
			v, err := f.GetCellValue(SheetTotals, "A1")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "Metric")
		})

		Convey("An empty record set still yields headers", func() {
			f, err := Workbook(nil, aggregate.Build(nil, st, aggregate.Options{}))
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := f.GetRows(SheetRecords)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
		})
	})
}
