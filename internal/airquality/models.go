// Package airquality provides the domain model, payload extraction, and
// series normalization for UK air quality monitoring data.
package airquality

import (
	"errors"
	"time"
)

// Domain errors.
var (
	// ErrProviderUnavailable indicates a transport-level failure (connection
	// refused, timeout) talking to the upstream API.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")

	// ErrMalformedResponse indicates the upstream returned a body that could
	// not be decoded as JSON.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Sentinel is the upstream marker for a missing measurement. It must never
// survive extraction.
const Sentinel = "-999"

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM10 Pollutant = "PM10"
	PollutantPM25 Pollutant = "PM25"
	PollutantNO2  Pollutant = "NO2"
)

// Pollutants lists all supported pollutants in display order.
func Pollutants() []Pollutant {
	return []Pollutant{PollutantPM10, PollutantPM25, PollutantNO2}
}

// Valid reports whether p is a supported pollutant.
func (p Pollutant) Valid() bool {
	switch p {
	case PollutantPM10, PollutantPM25, PollutantNO2:
		return true
	}
	return false
}

// SpeciesCode returns the upstream species code for the pollutant. The
// London Air API uses the same spelling as our enum values.
func (p Pollutant) SpeciesCode() string {
	return string(p)
}

// Resolution represents the time resolution of a collection run.
type Resolution string

const (
	ResolutionAnnual  Resolution = "annual"
	ResolutionMonthly Resolution = "monthly"
	ResolutionDaily   Resolution = "daily"
	ResolutionHourly  Resolution = "hourly"
)

// Valid reports whether r is a supported resolution.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionAnnual, ResolutionMonthly, ResolutionDaily, ResolutionHourly:
		return true
	}
	return false
}

// YearBased reports whether the resolution is driven by per-year report
// fetches (annual/monthly) rather than timestamped data pulls.
func (r Resolution) YearBased() bool {
	return r == ResolutionAnnual || r == ResolutionMonthly
}

// Year bounds accepted for annual and monthly requests.
const (
	MinYear = 2000
	MaxYear = 2024
)

// Date-range caps for bulk pulls, in days.
const (
	MaxHourlyRangeDays = 183
	MaxDailyRangeDays  = 730
)

// AnnualRecord holds the values extracted from one annual monitoring report
// for a single (site, pollutant, year). Exactly one of the two fields is
// populated depending on the requested resolution.
type AnnualRecord struct {
	// Annual is the annual mean concentration (annual resolution).
	Annual float64

	// Monthly maps month number (1-12) to mean concentration (monthly
	// resolution). Months with sentinel or unparseable values are absent.
	Monthly map[time.Month]float64
}

// Observation is a single timestamped measurement extracted from the hourly
// data endpoint (or a per-date mean derived from it in daily mode).
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// SeriesKey identifies one chartable series.
type SeriesKey struct {
	Pollutant Pollutant
	Site      string
}

// SeriesPoint is one evenly spaced position in a normalized series. A nil
// Value marks an explicit gap the renderer must not interpolate across.
type SeriesPoint struct {
	Time  time.Time
	Value *float64
}

// Series is a complete, contiguous, gap-filled sequence for one
// (pollutant, site) pair at a single resolution. Point times are strictly
// increasing at the resolution's native step.
type Series struct {
	Key        SeriesKey
	Resolution Resolution
	Points     []SeriesPoint
}

// ValidPoints returns the number of non-gap points in the series.
func (s *Series) ValidPoints() int {
	n := 0
	for _, p := range s.Points {
		if p.Value != nil {
			n++
		}
	}
	return n
}

// Limits holds the regulatory reference values for a pollutant, both annual
// means in µg/m³. Consumed by the presentation layer only.
type Limits struct {
	WHOGuideline float64
	UKLegalLimit float64
}

// ReferenceLimits maps each pollutant to its WHO guideline and UK legal
// limit.
var ReferenceLimits = map[Pollutant]Limits{
	PollutantPM10: {WHOGuideline: 15, UKLegalLimit: 40},
	PollutantPM25: {WHOGuideline: 5, UKLegalLimit: 25},
	PollutantNO2:  {WHOGuideline: 10, UKLegalLimit: 40},
}
