package airquality

import (
	"sort"
	"time"
)

// Gap tolerance windows for timestamped resolutions. Observed points within
// the window of an expected boundary are snapped to it; anything further
// away leaves the boundary as an explicit gap.
const (
	HourlyTolerance = 30 * time.Minute
	DailyTolerance  = 12 * time.Hour
)

// CollectedRecord ties one successful extraction to its series key. Year
// and Annual are set for annual/monthly runs, Points for daily/hourly runs.
type CollectedRecord struct {
	Site      string
	Pollutant Pollutant
	Year      int
	Annual    *AnnualRecord
	Points    []Observation
}

// BuildSeries converts successful extraction results into one continuous,
// evenly spaced series per observed (pollutant, site) pair. Missing steps
// inside each series' observed domain appear as nil-valued points so the
// renderer draws a broken line instead of interpolating. Series without any
// valid point are not emitted.
func BuildSeries(res Resolution, records []CollectedRecord) []Series {
	grouped := make(map[SeriesKey][]CollectedRecord)
	var keys []SeriesKey
	for _, rec := range records {
		key := SeriesKey{Pollutant: rec.Pollutant, Site: rec.Site}
		if _, seen := grouped[key]; !seen {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], rec)
	}

	sort.Slice(keys, func(a, b int) bool {
		if keys[a].Pollutant != keys[b].Pollutant {
			return keys[a].Pollutant < keys[b].Pollutant
		}
		return keys[a].Site < keys[b].Site
	})

	series := make([]Series, 0, len(keys))
	for _, key := range keys {
		points := normalize(res, grouped[key])
		if len(points) == 0 {
			continue
		}
		series = append(series, Series{Key: key, Resolution: res, Points: points})
	}

	return series
}

func normalize(res Resolution, records []CollectedRecord) []SeriesPoint {
	switch res {
	case ResolutionAnnual:
		return normalizeAnnual(records)
	case ResolutionMonthly:
		return normalizeMonthly(records)
	case ResolutionDaily:
		return normalizeTimed(flattenPoints(records), 24*time.Hour, DailyTolerance)
	case ResolutionHourly:
		return normalizeTimed(flattenPoints(records), time.Hour, HourlyTolerance)
	}
	return nil
}

// normalizeAnnual emits one point per integer year between the minimum and
// maximum observed year, nil where a year has no value.
func normalizeAnnual(records []CollectedRecord) []SeriesPoint {
	byYear := make(map[int]float64)
	minYear, maxYear := 0, 0
	for _, rec := range records {
		if rec.Annual == nil || rec.Annual.Monthly != nil {
			continue
		}
		byYear[rec.Year] = rec.Annual.Annual
		if minYear == 0 || rec.Year < minYear {
			minYear = rec.Year
		}
		if rec.Year > maxYear {
			maxYear = rec.Year
		}
	}
	if len(byYear) == 0 {
		return nil
	}

	points := make([]SeriesPoint, 0, maxYear-minYear+1)
	for year := minYear; year <= maxYear; year++ {
		pos := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if v, ok := byYear[year]; ok {
			points = append(points, SeriesPoint{Time: pos, Value: ptr(v)})
		} else {
			points = append(points, SeriesPoint{Time: pos})
		}
	}
	return points
}

// normalizeMonthly emits one point per calendar month start between the
// minimum and maximum observed (year, month), matching by exact equality.
func normalizeMonthly(records []CollectedRecord) []SeriesPoint {
	byMonth := make(map[time.Time]float64)
	var minMonth, maxMonth time.Time
	for _, rec := range records {
		if rec.Annual == nil {
			continue
		}
		for month, v := range rec.Annual.Monthly {
			pos := time.Date(rec.Year, month, 1, 0, 0, 0, 0, time.UTC)
			byMonth[pos] = v
			if minMonth.IsZero() || pos.Before(minMonth) {
				minMonth = pos
			}
			if pos.After(maxMonth) {
				maxMonth = pos
			}
		}
	}
	if len(byMonth) == 0 {
		return nil
	}

	var points []SeriesPoint
	for pos := minMonth; !pos.After(maxMonth); pos = pos.AddDate(0, 1, 0) {
		if v, ok := byMonth[pos]; ok {
			points = append(points, SeriesPoint{Time: pos, Value: ptr(v)})
		} else {
			points = append(points, SeriesPoint{Time: pos})
		}
	}
	return points
}

// normalizeTimed walks the expected boundaries from the earliest to the
// latest observed timestamp at the given step and snaps each boundary to
// the first observation (by sort order) within the tolerance window.
// Observations further away than the tolerance stay orphaned and the
// boundary becomes a gap.
func normalizeTimed(points []Observation, step, tolerance time.Duration) []SeriesPoint {
	if len(points) == 0 {
		return nil
	}

	sort.Slice(points, func(a, b int) bool {
		return points[a].Timestamp.Before(points[b].Timestamp)
	})

	start := points[0].Timestamp
	end := points[len(points)-1].Timestamp

	var out []SeriesPoint
	idx := 0
	for pos := start; !pos.After(end); pos = pos.Add(step) {
		// Skip observations that fell before this boundary's window; both
		// the boundaries and the observations advance monotonically.
		for idx < len(points) && points[idx].Timestamp.Before(pos.Add(-tolerance)) {
			idx++
		}
		if idx < len(points) && absDuration(points[idx].Timestamp.Sub(pos)) <= tolerance {
			out = append(out, SeriesPoint{Time: pos, Value: ptr(points[idx].Value)})
		} else {
			out = append(out, SeriesPoint{Time: pos})
		}
	}
	return out
}

func flattenPoints(records []CollectedRecord) []Observation {
	var all []Observation
	for _, rec := range records {
		all = append(all, rec.Points...)
	}
	return all
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func ptr(v float64) *float64 {
	return &v
}
