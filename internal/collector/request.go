// Package collector fans fetch-and-extract work across a bounded worker
// pool and classifies the per-combination outcomes.
package collector

import (
	"fmt"
	"time"

	"github.com/airtrends/airtrends/internal/airquality"
)

// ValidationError describes a caller-supplied request problem detected
// before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Request describes one collection run. Year bounds apply to annual and
// monthly resolutions; the date range applies to daily and hourly.
type Request struct {
	Resolution airquality.Resolution
	Sites      []string
	Pollutants []airquality.Pollutant

	StartYear int
	EndYear   int

	StartDate time.Time
	EndDate   time.Time
}

// Validate checks the request before any fetch is attempted. A non-nil
// return is always a *ValidationError.
func (r *Request) Validate() error {
	if !r.Resolution.Valid() {
		return &ValidationError{Field: "resolution", Message: "must be one of annual, monthly, daily, hourly"}
	}
	if len(r.Sites) == 0 {
		return &ValidationError{Field: "sites", Message: "select at least one monitoring site"}
	}
	for _, site := range r.Sites {
		if !airquality.KnownSite(site) {
			return &ValidationError{Field: "sites", Message: fmt.Sprintf("unknown site code %q", site)}
		}
	}
	if len(r.Pollutants) == 0 {
		return &ValidationError{Field: "pollutants", Message: "select at least one pollutant"}
	}
	for _, p := range r.Pollutants {
		if !p.Valid() {
			return &ValidationError{Field: "pollutants", Message: fmt.Sprintf("unknown pollutant %q", p)}
		}
	}

	if r.Resolution.YearBased() {
		return r.validateYears()
	}
	return r.validateDates()
}

func (r *Request) validateYears() error {
	if r.StartYear < airquality.MinYear || r.StartYear > airquality.MaxYear {
		return &ValidationError{Field: "start_year", Message: fmt.Sprintf("must be between %d and %d", airquality.MinYear, airquality.MaxYear)}
	}
	if r.EndYear < airquality.MinYear || r.EndYear > airquality.MaxYear {
		return &ValidationError{Field: "end_year", Message: fmt.Sprintf("must be between %d and %d", airquality.MinYear, airquality.MaxYear)}
	}
	if r.StartYear > r.EndYear {
		return &ValidationError{Field: "start_year", Message: "start year must not be after end year"}
	}
	return nil
}

func (r *Request) validateDates() error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return &ValidationError{Field: "start_date", Message: "start and end dates are required"}
	}
	if r.StartDate.After(r.EndDate) {
		return &ValidationError{Field: "start_date", Message: "start date must not be after end date"}
	}

	days := int(r.EndDate.Sub(r.StartDate).Hours() / 24)
	switch r.Resolution {
	case airquality.ResolutionHourly:
		if days > airquality.MaxHourlyRangeDays {
			return &ValidationError{Field: "end_date", Message: fmt.Sprintf("hourly range is capped at %d days", airquality.MaxHourlyRangeDays)}
		}
	case airquality.ResolutionDaily:
		if days > airquality.MaxDailyRangeDays {
			return &ValidationError{Field: "end_date", Message: fmt.Sprintf("daily range is capped at %d days", airquality.MaxDailyRangeDays)}
		}
	}
	return nil
}

// tasks expands the request into its cross-product of fetch tasks.
func (r *Request) tasks() []Task {
	var out []Task
	if r.Resolution.YearBased() {
		for _, site := range r.Sites {
			for _, p := range r.Pollutants {
				for year := r.StartYear; year <= r.EndYear; year++ {
					out = append(out, Task{Site: site, Pollutant: p, Year: year})
				}
			}
		}
		return out
	}

	for _, site := range r.Sites {
		for _, p := range r.Pollutants {
			out = append(out, Task{Site: site, Pollutant: p, Start: r.StartDate, End: r.EndDate})
		}
	}
	return out
}

// Task is one unit of fetch-and-extract work: a single
// (site, pollutant, period) combination.
type Task struct {
	Site      string
	Pollutant airquality.Pollutant

	// Year is set for annual/monthly tasks.
	Year int

	// Start and End are set for daily/hourly tasks; the range is shared by
	// every task in the run.
	Start time.Time
	End   time.Time
}

// Label renders the combination for user-facing missing-data listings.
func (t Task) Label() string {
	if t.Year != 0 {
		return fmt.Sprintf("%s at %s for %d", t.Pollutant, t.Site, t.Year)
	}
	return fmt.Sprintf("%s at %s", t.Pollutant, t.Site)
}
