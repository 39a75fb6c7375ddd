package monthly

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

func str(s string) model.Cell  { return model.StringCell(s) }
func num(f float64) model.Cell { return model.NumberCell(f) }

func sampleGrid() [][]model.Cell {
	pad := func(cells ...model.Cell) []model.Cell {
		row := make([]model.Cell, 21)
		for i := range row {
			row[i] = model.EmptyCell()
		}
		copy(row, cells)
		return row
	}
	member := func(name, project string) []model.Cell {
		row := pad(model.EmptyCell(), str(name), str(project))
		row[3] = num(0.5)            // call pace
		row[4] = num(0.25)           // appointment pace
		row[5] = str("¥1,000,000")   // sales
		row[6] = num(1000)           // target calls
		row[7] = num(600)            // actual calls
		row[8] = num(0.6)            // call progress
		row[9] = num(20)             // target appointments
		row[10] = num(8)             // actual appointments
		row[11] = num(0.4)           // appointment progress
		row[12] = num(80)            // actual PR
		row[13] = num(15)            // calls/h target
		row[14] = num(12.5)          // calls/h actual
		row[15] = num(0.02)          // call->appo target
		row[16] = num(0.013)         // call->appo actual
		row[17] = num(0.3)           // call->answer
		row[18] = num(0.05)          // answer->appo
		row[19] = num(160)           // work hours target
		row[20] = num(120)           // work hours actual
		return row
	}

	header := pad()
	header[3] = num(0.45)
	header[4] = str("12日目/全30日")
	header[15] = num(0.8)

	totals := pad(model.EmptyCell(), str("計"))
	totals[5] = str("¥3,000,000")
	totals[6] = num(3000)
	totals[7] = num(1800)
	totals[9] = num(60)
	totals[10] = num(21)

	extended := pad(model.EmptyCell(), str("計（副次含む）"))
	extended[5] = str("¥3,500,000")

	return [][]model.Cell{
		pad(str("title")),
		header,
		pad(),
		pad(),
		member("@田中/A", "Alpha"),
		member("佐藤", "Beta"),
		totals,
		extended,
	}
}

func TestParse(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	Convey("Given a monthly view grid", t, func() {
		v := Parse(sampleGrid(), "月次ビュー", now)

		Convey("Then header metadata is extracted", func() {
			So(v.Metadata.SheetName, ShouldEqual, "月次ビュー")
			So(v.Metadata.LastUpdated, ShouldEqual, "2025-03-15T10:00:00Z")
			So(v.Metadata.StandardProgress, ShouldEqual, 45)
			So(v.Metadata.ElapsedDays, ShouldEqual, 12)
			So(v.Metadata.TotalDays, ShouldEqual, 30)
			So(v.Metadata.BackTarget, ShouldEqual, 80)
		})

		Convey("Then member rows parse with mention decoration stripped", func() {
			So(v.Members, ShouldHaveLength, 2)
			So(v.Members[0].Name, ShouldEqual, "田中")
			So(v.Members[0].FullName, ShouldEqual, "@田中/A")
			So(v.Members[0].Project, ShouldEqual, "Alpha")
			So(v.Members[0].Sales, ShouldEqual, 1000000)
			So(v.Members[0].CallPace, ShouldEqual, 50)
			So(v.Members[0].CallToAppointmentActual, ShouldEqual, 1.3)
			So(v.Members[0].WorkHoursActual, ShouldEqual, 120)
		})

		Convey("Then totals rows are excluded from members", func() {
			for _, m := range v.Members {
				So(m.FullName, ShouldNotContainSubstring, "計")
			}
		})

		Convey("Then the summary reads the totals row and derives progress rates", func() {
			So(v.Summary.TotalSales, ShouldEqual, 3000000)
			So(v.Summary.ExtendedTotalSales, ShouldEqual, 3500000)
			So(v.Summary.TotalCalls, ShouldEqual, 1800)
			So(v.Summary.CallProgressRate, ShouldEqual, 60)
			So(v.Summary.AppointmentProgressRate, ShouldEqual, 35)
		})
	})

	Convey("Given a grid without an extended totals row", t, func() {
		grid := sampleGrid()
		v := Parse(grid[:len(grid)-1], "月次ビュー", now)

		Convey("Then the extended total falls back to the plain total", func() {
			So(v.Summary.ExtendedTotalSales, ShouldEqual, v.Summary.TotalSales)
		})
	})

	Convey("Given an empty grid", t, func() {
		v := Parse(nil, "月次ビュー", now)

		Convey("Then parsing degrades to zero values", func() {
			So(v.Members, ShouldBeEmpty)
			So(v.Summary.TotalSales, ShouldEqual, 0)
			So(v.Summary.CallProgressRate, ShouldEqual, 0)
		})
	})
}

func TestProjects(t *testing.T) {
	Convey("Given a monthly view grid", t, func() {
		Convey("Then distinct projects come back sorted, totals rows excluded", func() {
			So(Projects(sampleGrid()), ShouldResemble, []string{"Alpha", "Beta"})
		})
	})
}
