package airquality_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrends/airtrends/internal/airquality"
)

func annualRecord(site string, pollutant airquality.Pollutant, year int, value float64) airquality.CollectedRecord {
	return airquality.CollectedRecord{
		Site:      site,
		Pollutant: pollutant,
		Year:      year,
		Annual:    &airquality.AnnualRecord{Annual: value},
	}
}

func TestBuildSeries_AnnualGapFill(t *testing.T) {
	records := []airquality.CollectedRecord{
		annualRecord("RI2", airquality.PollutantPM10, 2000, 18.3),
		annualRecord("RI2", airquality.PollutantPM10, 2002, 16.1),
	}

	series := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	require.Len(t, series, 1)

	s := series[0]
	assert.Equal(t, airquality.SeriesKey{Pollutant: airquality.PollutantPM10, Site: "RI2"}, s.Key)
	require.Len(t, s.Points, 3, "2001 must appear as an explicit gap")

	assert.Equal(t, 2000, s.Points[0].Time.Year())
	require.NotNil(t, s.Points[0].Value)
	assert.Equal(t, 18.3, *s.Points[0].Value)

	assert.Equal(t, 2001, s.Points[1].Time.Year())
	assert.Nil(t, s.Points[1].Value)

	assert.Equal(t, 2002, s.Points[2].Time.Year())
	require.NotNil(t, s.Points[2].Value)
	assert.Equal(t, 16.1, *s.Points[2].Value)

	assert.Equal(t, 2, s.ValidPoints())
}

func TestBuildSeries_AnnualSingleYear(t *testing.T) {
	records := []airquality.CollectedRecord{
		annualRecord("WA2", airquality.PollutantNO2, 2015, 42.0),
	}

	series := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 1)
	assert.Equal(t, 42.0, *series[0].Points[0].Value)
}

func TestBuildSeries_MonthlyContiguous(t *testing.T) {
	records := []airquality.CollectedRecord{
		{
			Site:      "RI2",
			Pollutant: airquality.PollutantPM25,
			Year:      2023,
			Annual: &airquality.AnnualRecord{
				Monthly: map[time.Month]float64{
					time.November: 8.2,
				},
			},
		},
		{
			Site:      "RI2",
			Pollutant: airquality.PollutantPM25,
			Year:      2024,
			Annual: &airquality.AnnualRecord{
				Monthly: map[time.Month]float64{
					time.February: 9.4,
				},
			},
		},
	}

	series := airquality.BuildSeries(airquality.ResolutionMonthly, records)
	require.Len(t, series, 1)

	points := series[0].Points
	require.Len(t, points, 4, "Nov 2023 through Feb 2024, December and January as gaps")

	assert.Equal(t, time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC), points[0].Time)
	require.NotNil(t, points[0].Value)
	assert.Equal(t, 8.2, *points[0].Value)

	assert.Nil(t, points[1].Value)
	assert.Nil(t, points[2].Value)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), points[3].Time)
	require.NotNil(t, points[3].Value)
	assert.Equal(t, 9.4, *points[3].Value)
}

func TestBuildSeries_HourlyToleranceWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []airquality.CollectedRecord{
		{
			Site:      "ME2",
			Pollutant: airquality.PollutantNO2,
			Points: []airquality.Observation{
				{Timestamp: base, Value: 30.0},
				// 20 minutes past the 11:00 boundary: inside the window.
				{Timestamp: base.Add(time.Hour + 20*time.Minute), Value: 35.0},
				// 40 minutes past the 13:00 boundary: outside the window.
				{Timestamp: base.Add(3*time.Hour + 40*time.Minute), Value: 50.0},
			},
		},
	}

	series := airquality.BuildSeries(airquality.ResolutionHourly, records)
	require.Len(t, series, 1)

	points := series[0].Points
	// Boundaries run hourly from 10:00 to 13:40's last covered hour.
	require.NotEmpty(t, points)

	require.NotNil(t, points[0].Value)
	assert.Equal(t, 30.0, *points[0].Value)

	require.NotNil(t, points[1].Value, "point 20 minutes off the boundary snaps to it")
	assert.Equal(t, 35.0, *points[1].Value)

	for _, p := range points[2:] {
		if p.Time.Equal(base.Add(3 * time.Hour)) {
			assert.Nil(t, p.Value, "point 40 minutes off the boundary stays a gap")
		}
	}
}

func TestBuildSeries_DailyToleranceWindow(t *testing.T) {
	day1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []airquality.CollectedRecord{
		{
			Site:      "RI1",
			Pollutant: airquality.PollutantPM10,
			Points: []airquality.Observation{
				{Timestamp: day1, Value: 12.0},
				{Timestamp: day1.AddDate(0, 0, 2), Value: 14.0},
			},
		},
	}

	series := airquality.BuildSeries(airquality.ResolutionDaily, records)
	require.Len(t, series, 1)

	points := series[0].Points
	require.Len(t, points, 3)
	require.NotNil(t, points[0].Value)
	assert.Nil(t, points[1].Value)
	require.NotNil(t, points[2].Value)
}

func TestBuildSeries_StrictlyIncreasingPositions(t *testing.T) {
	records := []airquality.CollectedRecord{
		annualRecord("RI2", airquality.PollutantPM10, 2003, 20.0),
		annualRecord("RI2", airquality.PollutantPM10, 2000, 18.0),
		annualRecord("RI2", airquality.PollutantPM10, 2007, 15.0),
	}

	series := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	require.Len(t, series, 1)

	points := series[0].Points
	require.Len(t, points, 8)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Time.Before(points[i].Time))
	}
}

func TestBuildSeries_Idempotent(t *testing.T) {
	records := []airquality.CollectedRecord{
		annualRecord("WA7", airquality.PollutantNO2, 2010, 44.0),
		annualRecord("WA7", airquality.PollutantNO2, 2012, 39.0),
	}

	first := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	second := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	assert.Equal(t, first, second)
}

func TestBuildSeries_OrdersByPollutantThenSite(t *testing.T) {
	records := []airquality.CollectedRecord{
		annualRecord("WA2", airquality.PollutantPM10, 2020, 1.0),
		annualRecord("WA7", airquality.PollutantPM10, 2020, 2.0),
		annualRecord("WA7", airquality.PollutantNO2, 2020, 3.0),
	}

	series := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	require.Len(t, series, 3)

	assert.Equal(t, airquality.SeriesKey{Pollutant: airquality.PollutantNO2, Site: "WA7"}, series[0].Key)
	assert.Equal(t, airquality.SeriesKey{Pollutant: airquality.PollutantPM10, Site: "WA2"}, series[1].Key)
	assert.Equal(t, airquality.SeriesKey{Pollutant: airquality.PollutantPM10, Site: "WA7"}, series[2].Key)
}

func TestBuildSeries_DropsEmptySeries(t *testing.T) {
	records := []airquality.CollectedRecord{
		{Site: "RI2", Pollutant: airquality.PollutantPM10},
		annualRecord("WA2", airquality.PollutantNO2, 2018, 33.0),
	}

	series := airquality.BuildSeries(airquality.ResolutionAnnual, records)
	require.Len(t, series, 1)
	assert.Equal(t, "WA2", series[0].Key.Site)
}

func TestBuildSeries_NoRecords(t *testing.T) {
	assert.Empty(t, airquality.BuildSeries(airquality.ResolutionAnnual, nil))
}

func TestSitesCatalog(t *testing.T) {
	sites := airquality.Sites()
	require.NotEmpty(t, sites)
	assert.True(t, airquality.KnownSite("RI2"))
	assert.False(t, airquality.KnownSite("XX9"))
	assert.Equal(t, "Wetland Centre, Barnes", airquality.SiteName("RI2"))
	assert.Equal(t, "XX9", airquality.SiteName("XX9"), "unknown codes fall back to the code")
}

func TestReferenceLimits(t *testing.T) {
	for _, p := range airquality.Pollutants() {
		limits, ok := airquality.ReferenceLimits[p]
		require.True(t, ok, "every pollutant carries reference limits")
		assert.Less(t, limits.WHOGuideline, limits.UKLegalLimit)
	}
}
