// Package monthly parses the pre-computed monthly progress view into its
// API representation. Unlike the raw activity path this sheet is already
// aggregated upstream; the parser only types the cells and separates member
// rows from the two kinds of totals rows.
package monthly

import (
	"sort"
	"strings"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/aggregate"
	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/internal/domain/normalize"
)

// Layout constants of the monthly view sheet. Rows before memberStartRow
// hold headers and spacing; totals rows are interleaved with member rows
// and identified by their label.
const (
	headerRow      = 1
	memberStartRow = 4

	totalsLabel         = "計"
	extendedTotalsLabel = "計（"
)

// Metadata holds the sheet-level figures read from the header row.
type Metadata struct {
	LastUpdated      string  `json:"lastUpdated"`
	SheetName        string  `json:"sheetName"`
	StandardProgress float64 `json:"standardProgress"`
	ElapsedDays      int     `json:"elapsedDays"`
	TotalDays        int     `json:"totalDays"`
	BackTarget       float64 `json:"backTarget"`
}

// Summary holds the totals-row figures plus the progress rates derived
// from them.
type Summary struct {
	TotalSales              int64   `json:"totalSales"`
	ExtendedTotalSales      int64   `json:"extendedTotalSales"`
	TotalCalls              float64 `json:"totalCalls"`
	TargetCalls             float64 `json:"targetCalls"`
	TotalAppointments       float64 `json:"totalAppointments"`
	TargetAppointments      float64 `json:"targetAppointments"`
	CallProgressRate        float64 `json:"callProgressRate"`
	AppointmentProgressRate float64 `json:"appointmentProgressRate"`
}

// Member is one staff row of the monthly view.
type Member struct {
	Name                    string  `json:"name"`
	FullName                string  `json:"fullName"`
	Project                 string  `json:"project"`
	CallPace                float64 `json:"callPace"`
	AppointmentPace         float64 `json:"appointmentPace"`
	Sales                   int64   `json:"sales"`
	TargetCalls             float64 `json:"targetCalls"`
	ActualCalls             float64 `json:"actualCalls"`
	CallProgress            float64 `json:"callProgress"`
	TargetAppointments      float64 `json:"targetAppointments"`
	ActualAppointments      float64 `json:"actualAppointments"`
	AppointmentProgress     float64 `json:"appointmentProgress"`
	ActualPR                float64 `json:"actualPR"`
	CallsPerHourTarget      float64 `json:"callsPerHourTarget"`
	CallsPerHourActual      float64 `json:"callsPerHourActual"`
	CallToAppointmentTarget float64 `json:"callToAppointmentTarget"`
	CallToAppointmentActual float64 `json:"callToAppointmentActual"`
	CallToAnswer            float64 `json:"callToAnswer"`
	AnswerToAppointment     float64 `json:"answerToAppointment"`
	WorkHoursTarget         float64 `json:"workHoursTarget"`
	WorkHoursActual         float64 `json:"workHoursActual"`
}

// View is the parsed monthly view served by the reporting API.
type View struct {
	Metadata Metadata `json:"metadata"`
	Summary  Summary  `json:"summary"`
	Members  []Member `json:"members"`
}

func cell(row []model.Cell, i int) model.Cell {
	if i < len(row) {
		return row[i]
	}
	return model.EmptyCell()
}

func label(row []model.Cell) string {
	return strings.TrimSpace(cell(row, 1).String())
}

// Parse converts the raw monthly view grid. now stamps the metadata; the
// sheet name is echoed back so clients can label the view.
func Parse(grid [][]model.Cell, sheetName string, now time.Time) View {
	v := View{
		Metadata: Metadata{
			LastUpdated: now.UTC().Format(time.RFC3339),
			SheetName:   sheetName,
		},
		Members: []Member{},
	}

	if len(grid) > headerRow {
		h := grid[headerRow]
		v.Metadata.StandardProgress = normalize.Percent(cell(h, 3))
		v.Metadata.ElapsedDays = normalize.ExtractNumber(cell(h, 4))
		v.Metadata.TotalDays = normalize.ExtractTotalDays(cell(h, 4))
		v.Metadata.BackTarget = normalize.Percent(cell(h, 15))
	}

	for i := memberStartRow; i < len(grid); i++ {
		row := grid[i]
		name := label(row)
		if name == "" || name == totalsLabel || strings.Contains(name, extendedTotalsLabel) {
			continue
		}
		v.Members = append(v.Members, memberRow(row, name))
	}

	for _, row := range grid {
		if label(row) == totalsLabel {
			v.Summary.TotalSales = normalize.Currency(cell(row, 5))
			v.Summary.TargetCalls = normalize.Number(cell(row, 6))
			v.Summary.TotalCalls = normalize.Number(cell(row, 7))
			v.Summary.TargetAppointments = normalize.Number(cell(row, 9))
			v.Summary.TotalAppointments = normalize.Number(cell(row, 10))
			break
		}
	}

	// The extended totals row folds side revenue into the monthly figure;
	// without one the plain total stands.
	v.Summary.ExtendedTotalSales = v.Summary.TotalSales
	for _, row := range grid {
		if strings.Contains(label(row), extendedTotalsLabel) {
			v.Summary.ExtendedTotalSales = normalize.Currency(cell(row, 5))
			break
		}
	}

	v.Summary.CallProgressRate = aggregate.Rate(v.Summary.TotalCalls, v.Summary.TargetCalls)
	v.Summary.AppointmentProgressRate = aggregate.Rate(v.Summary.TotalAppointments, v.Summary.TargetAppointments)
	return v
}

func memberRow(row []model.Cell, name string) Member {
	return Member{
		Name:                    normalize.Member(cell(row, 1)),
		FullName:                name,
		Project:                 strings.TrimSpace(cell(row, 2).String()),
		CallPace:                normalize.Percent(cell(row, 3)),
		AppointmentPace:         normalize.Percent(cell(row, 4)),
		Sales:                   normalize.Currency(cell(row, 5)),
		TargetCalls:             normalize.Number(cell(row, 6)),
		ActualCalls:             normalize.Number(cell(row, 7)),
		CallProgress:            normalize.Percent(cell(row, 8)),
		TargetAppointments:      normalize.Number(cell(row, 9)),
		ActualAppointments:      normalize.Number(cell(row, 10)),
		AppointmentProgress:     normalize.Percent(cell(row, 11)),
		ActualPR:                normalize.Number(cell(row, 12)),
		CallsPerHourTarget:      normalize.Number(cell(row, 13)),
		CallsPerHourActual:      normalize.Number(cell(row, 14)),
		CallToAppointmentTarget: normalize.Percent(cell(row, 15)),
		CallToAppointmentActual: normalize.Percent(cell(row, 16)),
		CallToAnswer:            normalize.Percent(cell(row, 17)),
		AnswerToAppointment:     normalize.Percent(cell(row, 18)),
		WorkHoursTarget:         normalize.Number(cell(row, 19)),
		WorkHoursActual:         normalize.Number(cell(row, 20)),
	}
}

// Projects lists the distinct project names present in the monthly view's
// member rows, sorted, excluding totals rows. Used to offer target settings
// for projects that have no explicit target yet.
func Projects(grid [][]model.Cell) []string {
	seen := map[string]struct{}{}
	for i := memberStartRow; i < len(grid); i++ {
		p := strings.TrimSpace(cell(grid[i], 2).String())
		if p == "" || strings.Contains(p, totalsLabel) {
			continue
		}
		seen[p] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
