// Package model contains domain models passed between layers.
package model

import "time"

// DateLayout is the canonical calendar-date encoding used for group keys,
// sync windows, and the remote store's input_date column.
const DateLayout = "2006-01-02"

// Record is the canonical normalized activity record shared by the sync
// and aggregation engines. A record always carries at least a member or a
// project; rows with neither are dropped before normalization.
type Record struct {
	Member           string    // staff member, decoration markers stripped
	Project          string    // may be empty
	Date             time.Time // calendar date; zero when the source cell was empty or unparseable
	Timestamp        time.Time // full input timestamp, kept for upsert audit columns
	CallHours        float64
	CallCount        int
	PRCount          int
	AppointmentCount int
	Feedback         string
}

// HasDate reports whether the record carries a usable calendar date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// DateKey returns the record's aggregation key for by-day grouping, or ""
// when the record has no date.
func (r Record) DateKey() string {
	if !r.HasDate() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// ProjectTarget holds the per-project KPI targets managed through the
// settings endpoints.
type ProjectTarget struct {
	Project            string  `json:"project"`
	CallToPRTarget     float64 `json:"callToPRTarget"`
	PRToAppoTarget     float64 `json:"prToAppoTarget"`
	CallToAppoTarget   float64 `json:"callToAppoTarget"`
	CallsPerHourTarget float64 `json:"callsPerHourTarget"`
}
