package airquality

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// measurementLayout is the timestamp format used by the hourly data
// endpoint (GMT wall-clock, no zone designator).
const measurementLayout = "2006-01-02 15:04:05"

// Annual report payload (from the annual monitoring report endpoint). The
// upstream attribute-style field names carry an "@" prefix.

// AnnualReport is the decoded annual monitoring report payload.
type AnnualReport struct {
	SiteReport SiteReport `json:"SiteReport"`
}

// SiteReport nests the per-statistic report line items for one site-year.
type SiteReport struct {
	ReportItems []ReportItem `json:"ReportItem"`
}

// ReportItem is one statistic row in an annual report. The same species
// code appears on several rows (data capture, maxima, means); rows are told
// apart by the report item id and display name.
type ReportItem struct {
	SpeciesCode    string `json:"@SpeciesCode"`
	ReportItem     string `json:"@ReportItem"`
	ReportItemName string `json:"@ReportItemName"`
	Annual         string `json:"@Annual"`
	Month1         string `json:"@Month1"`
	Month2         string `json:"@Month2"`
	Month3         string `json:"@Month3"`
	Month4         string `json:"@Month4"`
	Month5         string `json:"@Month5"`
	Month6         string `json:"@Month6"`
	Month7         string `json:"@Month7"`
	Month8         string `json:"@Month8"`
	Month9         string `json:"@Month9"`
	Month10        string `json:"@Month10"`
	Month11        string `json:"@Month11"`
	Month12        string `json:"@Month12"`
}

// monthValues returns the twelve month fields in calendar order.
func (r *ReportItem) monthValues() [12]string {
	return [12]string{
		r.Month1, r.Month2, r.Month3, r.Month4, r.Month5, r.Month6,
		r.Month7, r.Month8, r.Month9, r.Month10, r.Month11, r.Month12,
	}
}

// Hourly data payload (from the raw data endpoint).

// HourlyReport is the decoded hourly data payload.
type HourlyReport struct {
	AirQualityData AirQualityData `json:"AirQualityData"`
}

// AirQualityData nests the per-timestamp-per-species data points.
type AirQualityData struct {
	Data []DataPoint `json:"Data"`
}

// DataPoint is one raw measurement row.
type DataPoint struct {
	SpeciesCode        string `json:"@SpeciesCode"`
	MeasurementDateGMT string `json:"@MeasurementDateGMT"`
	Value              string `json:"@Value"`
}

// meanReportItemID identifies the mean-concentration row among the
// statistics bundled under one species code. Together with the "Mean:"
// name prefix this is the upstream contract for locating concentration
// data; both conditions are required.
const meanReportItemID = "7"

const meanNamePrefix = "Mean:"

// parseValue converts an upstream value string to a float, rejecting the
// missing-data sentinel, empty strings, and anything unparseable.
func parseValue(raw string) (float64, bool) {
	if raw == "" || raw == Sentinel {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractAnnual locates the mean-concentration report line for the
// pollutant and reads either the annual aggregate (annual resolution) or
// the twelve month fields (monthly resolution). It returns nil when the
// payload is empty, no line item matches, or no valid value survives
// sentinel filtering. Structural anomalies are treated as missing data,
// never as errors.
func ExtractAnnual(report *AnnualReport, pollutant Pollutant, res Resolution) *AnnualRecord {
	if report == nil {
		return nil
	}

	for i := range report.SiteReport.ReportItems {
		item := &report.SiteReport.ReportItems[i]
		if item.SpeciesCode != pollutant.SpeciesCode() ||
			item.ReportItem != meanReportItemID ||
			!strings.HasPrefix(item.ReportItemName, meanNamePrefix) {
			continue
		}

		switch res {
		case ResolutionAnnual:
			if v, ok := parseValue(item.Annual); ok {
				return &AnnualRecord{Annual: v}
			}

		case ResolutionMonthly:
			monthly := make(map[time.Month]float64)
			for i, raw := range item.monthValues() {
				if v, ok := parseValue(raw); ok {
					monthly[time.Month(i+1)] = v
				}
			}
			if len(monthly) > 0 {
				return &AnnualRecord{Monthly: monthly}
			}
		}
	}

	return nil
}

// ExtractHourly filters the raw data points to the pollutant's species
// code, parses timestamps and values, and returns the survivors sorted by
// timestamp ascending. In daily resolution the points are grouped by
// calendar date and one observation is emitted per date holding the
// arithmetic mean of that date's valid values. The result is empty, never
// an error, when nothing matches.
func ExtractHourly(report *HourlyReport, pollutant Pollutant, res Resolution) []Observation {
	if report == nil {
		return nil
	}

	var points []Observation
	for _, item := range report.AirQualityData.Data {
		if item.SpeciesCode != pollutant.SpeciesCode() {
			continue
		}
		ts, err := time.Parse(measurementLayout, item.MeasurementDateGMT)
		if err != nil {
			continue
		}
		v, ok := parseValue(item.Value)
		if !ok {
			continue
		}
		points = append(points, Observation{Timestamp: ts.UTC(), Value: v})
	}

	if len(points) == 0 {
		return nil
	}

	sort.Slice(points, func(a, b int) bool {
		return points[a].Timestamp.Before(points[b].Timestamp)
	})

	if res == ResolutionDaily {
		return dailyMeans(points)
	}

	return points
}

// dailyMeans collapses sorted hourly observations into one observation per
// calendar date carrying the mean of that date's values. Dates without any
// valid point simply do not appear; the gap filler handles them downstream.
func dailyMeans(points []Observation) []Observation {
	var (
		out   []Observation
		day   time.Time
		sum   float64
		count int
	)

	flush := func() {
		if count > 0 {
			out = append(out, Observation{Timestamp: day, Value: sum / float64(count)})
		}
	}

	for _, p := range points {
		d := time.Date(p.Timestamp.Year(), p.Timestamp.Month(), p.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
		if !d.Equal(day) {
			flush()
			day = d
			sum = 0
			count = 0
		}
		sum += p.Value
		count++
	}
	flush()

	return out
}
