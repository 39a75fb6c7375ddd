// Package aggregate computes grouped KPI totals, derived conversion rates,
// and period-over-period comparisons from normalized activity records.
//
// All functions are pure: aggregates are recomputed on every call from the
// records handed in, so readers always see figures consistent with the
// source, at the cost of repeating the single-pass reduction per request.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

// PrevMonthDays is the fixed length of the previous-month daily breakdown.
// Consumers chart it on a fixed 1..31 axis; days past the month's actual
// length stay zero-filled.
const PrevMonthDays = 31

// Totals holds a bucket's accumulated counts plus the rates derived from
// them. Rates are always derived from the bucket's own totals, never carried
// across buckets.
type Totals struct {
	Calls        int     `json:"calls"`
	PR           int     `json:"pr"`
	Appo         int     `json:"appo"`
	CallTime     float64 `json:"callTime"`
	CallToPR     float64 `json:"callToPR"`
	PRToAppo     float64 `json:"prToAppo"`
	CallToAppo   float64 `json:"callToAppo"`
	CallsPerHour float64 `json:"callsPerHour"`
}

// DailyBucket is one by-day group keyed by calendar date.
type DailyBucket struct {
	Date string `json:"date"`
	Totals
}

// ProjectBucket is one by-project group.
type ProjectBucket struct {
	Project string `json:"project"`
	Totals
}

// MemberBucket is one by-member group.
type MemberBucket struct {
	Name string `json:"name"`
	Totals
}

// Aggregated is the four-way breakdown of one record set.
type Aggregated struct {
	Totals    Totals          `json:"totals"`
	Daily     []DailyBucket   `json:"daily"`
	ByProject []ProjectBucket `json:"byProject"`
	ByMember  []MemberBucket  `json:"byMember"`
}

// RateDelta is the signed difference of the three conversion rates between
// the current selection and a reference aggregate.
type RateDelta struct {
	CallToPR   float64 `json:"callToPR"`
	PRToAppo   float64 `json:"prToAppo"`
	CallToAppo float64 `json:"callToAppo"`
}

// Comparisons pairs the last-month and all-time rate deltas.
type Comparisons struct {
	LastMonth RateDelta `json:"lastMonth"`
	AllTime   RateDelta `json:"allTime"`
}

// DayOfMonthBucket is one entry of the previous-month daily breakdown,
// keyed by day of month rather than full date.
type DayOfMonthBucket struct {
	Day int `json:"day"`
	Totals
}

// PrevMonthDaily is the fixed-length previous-month breakdown.
type PrevMonthDaily struct {
	Month string             `json:"month"`
	Daily []DayOfMonthBucket `json:"daily"`
}

// Filters lists the distinct projects and members present in a record set,
// sorted, for client-side filter population.
type Filters struct {
	Projects []string `json:"projects"`
	Members  []string `json:"members"`
}

// Rate computes a percentage rate rounded to two decimals. A zero
// denominator yields 0, never NaN or infinity.
func Rate(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return math.Round(numerator/denominator*10000) / 100
}

// PerHour computes calls per hour rounded to one decimal; zero hours yields 0.
func PerHour(count, hours float64) float64 {
	if hours <= 0 {
		return 0
	}
	return math.Round(count/hours*10) / 10
}

// roundDelta rounds a rate difference to two decimals.
func roundDelta(v float64) float64 {
	return math.Round(v*100) / 100
}

type accumulator struct {
	calls    int
	pr       int
	appo     int
	callTime float64
}

func (a *accumulator) add(r model.Record) {
	a.calls += r.CallCount
	a.pr += r.PRCount
	a.appo += r.AppointmentCount
	a.callTime += r.CallHours
}

func (a accumulator) totals() Totals {
	return Totals{
		Calls:        a.calls,
		PR:           a.pr,
		Appo:         a.appo,
		CallTime:     a.callTime,
		CallToPR:     Rate(float64(a.pr), float64(a.calls)),
		PRToAppo:     Rate(float64(a.appo), float64(a.pr)),
		CallToAppo:   Rate(float64(a.appo), float64(a.calls)),
		CallsPerHour: PerHour(float64(a.calls), a.callTime),
	}
}

// Aggregate runs the single-pass four-way reduction over a record set.
// A record without a date still contributes to the overall totals and to
// the project/member buckets its other keys select.
func Aggregate(records []model.Record) Aggregated {
	var overall accumulator
	daily := map[string]*accumulator{}
	byProject := map[string]*accumulator{}
	byMember := map[string]*accumulator{}

	for _, r := range records {
		overall.add(r)

		if key := r.DateKey(); key != "" {
			acc := daily[key]
			if acc == nil {
				acc = &accumulator{}
				daily[key] = acc
			}
			acc.add(r)
		}
		if r.Project != "" {
			acc := byProject[r.Project]
			if acc == nil {
				acc = &accumulator{}
				byProject[r.Project] = acc
			}
			acc.add(r)
		}
		if r.Member != "" {
			acc := byMember[r.Member]
			if acc == nil {
				acc = &accumulator{}
				byMember[r.Member] = acc
			}
			acc.add(r)
		}
	}

	out := Aggregated{
		Totals:    overall.totals(),
		Daily:     make([]DailyBucket, 0, len(daily)),
		ByProject: make([]ProjectBucket, 0, len(byProject)),
		ByMember:  make([]MemberBucket, 0, len(byMember)),
	}
	for _, key := range sortedKeys(daily) {
		out.Daily = append(out.Daily, DailyBucket{Date: key, Totals: daily[key].totals()})
	}
	for _, key := range sortedKeys(byProject) {
		out.ByProject = append(out.ByProject, ProjectBucket{Project: key, Totals: byProject[key].totals()})
	}
	for _, key := range sortedKeys(byMember) {
		out.ByMember = append(out.ByMember, MemberBucket{Name: key, Totals: byMember[key].totals()})
	}
	return out
}

func sortedKeys(m map[string]*accumulator) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilterByDate keeps records within [start, end] inclusive. A nil bound is
// open; a record without a date passes every date filter. Bounds and record
// dates are compared as calendar-date keys, not instants, so a zoned record
// date landing on a bound stays in range.
func FilterByDate(records []model.Record, start, end *time.Time) []model.Record {
	if start == nil && end == nil {
		return records
	}
	var startKey, endKey string
	if start != nil {
		startKey = start.Format(model.DateLayout)
	}
	if end != nil {
		endKey = end.Format(model.DateLayout)
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if key := r.DateKey(); key != "" {
			if startKey != "" && key < startKey {
				continue
			}
			if endKey != "" && key > endKey {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Compare computes the comparison deltas for the current selection against
// two references recomputed from the historical set: the same window shifted
// back one calendar month, and all-time history. The result is a delta of
// rates, not a rate of deltas. With an unbounded filter the last-month
// reference is skipped and its deltas are all zero.
func Compare(current Totals, history []model.Record, start, end *time.Time) Comparisons {
	var cmp Comparisons

	if start != nil && end != nil {
		lmStart := start.AddDate(0, -1, 0)
		lmEnd := end.AddDate(0, -1, 0)
		lastMonth := Aggregate(FilterByDate(history, &lmStart, &lmEnd)).Totals
		cmp.LastMonth = RateDelta{
			CallToPR:   roundDelta(current.CallToPR - lastMonth.CallToPR),
			PRToAppo:   roundDelta(current.PRToAppo - lastMonth.PRToAppo),
			CallToAppo: roundDelta(current.CallToAppo - lastMonth.CallToAppo),
		}
	}

	allTime := Aggregate(history).Totals
	cmp.AllTime = RateDelta{
		CallToPR:   roundDelta(current.CallToPR - allTime.CallToPR),
		PRToAppo:   roundDelta(current.PRToAppo - allTime.PRToAppo),
		CallToAppo: roundDelta(current.CallToAppo - allTime.CallToAppo),
	}
	return cmp
}

// PreviousMonthDaily aggregates the calendar month immediately preceding
// the query's effective month into a fixed 31-entry day-of-month breakdown.
// The effective month comes from the filter start bound, or from now when
// the query is unbounded.
func PreviousMonthDaily(history []model.Record, start *time.Time, now time.Time) PrevMonthDaily {
	ref := now
	if start != nil {
		ref = *start
	}

	month := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Format("2006-01")

	days := make([]accumulator, PrevMonthDays+1)
	for _, r := range history {
		if !r.HasDate() || r.Date.Format("2006-01") != month {
			continue
		}
		days[r.Date.Day()].add(r)
	}

	out := PrevMonthDaily{
		Month: month,
		Daily: make([]DayOfMonthBucket, 0, PrevMonthDays),
	}
	for day := 1; day <= PrevMonthDays; day++ {
		out.Daily = append(out.Daily, DayOfMonthBucket{Day: day, Totals: days[day].totals()})
	}
	return out
}

// FilterValues collects the sorted distinct project and member names in a
// record set. Empty values are omitted.
func FilterValues(records []model.Record) Filters {
	projects := map[string]struct{}{}
	members := map[string]struct{}{}
	for _, r := range records {
		if r.Project != "" {
			projects[r.Project] = struct{}{}
		}
		if r.Member != "" {
			members[r.Member] = struct{}{}
		}
	}
	return Filters{
		Projects: sortedSet(projects),
		Members:  sortedSet(members),
	}
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
