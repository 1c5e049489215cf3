package collector_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrends/airtrends/internal/airquality"
	"github.com/airtrends/airtrends/internal/collector"
)

// fakeFetcher serves canned payloads keyed by site and counts calls.
type fakeFetcher struct {
	mu          sync.Mutex
	annualCalls int
	hourlyCalls int

	annual    map[string]*airquality.AnnualReport
	hourly    map[string]*airquality.HourlyReport
	annualErr map[string]error
	hourlyErr map[string]error
}

func (f *fakeFetcher) FetchAnnualReport(_ context.Context, site string, _ int) (*airquality.AnnualReport, error) {
	f.mu.Lock()
	f.annualCalls++
	f.mu.Unlock()
	if err := f.annualErr[site]; err != nil {
		return nil, err
	}
	return f.annual[site], nil
}

func (f *fakeFetcher) FetchHourlyData(_ context.Context, site string, _, _ time.Time) (*airquality.HourlyReport, error) {
	f.mu.Lock()
	f.hourlyCalls++
	f.mu.Unlock()
	if err := f.hourlyErr[site]; err != nil {
		return nil, err
	}
	return f.hourly[site], nil
}

func meanReport(pollutant airquality.Pollutant, annual string) *airquality.AnnualReport {
	return &airquality.AnnualReport{
		SiteReport: airquality.SiteReport{
			ReportItems: []airquality.ReportItem{
				{
					SpeciesCode:    pollutant.SpeciesCode(),
					ReportItem:     "7",
					ReportItemName: "Mean: (AQS Objective)",
					Annual:         annual,
				},
			},
		},
	}
}

func newCollector(f *fakeFetcher, opts ...func(*collector.Config)) *collector.Collector {
	cfg := collector.Config{Fetcher: f, Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return collector.New(cfg)
}

func TestCollector_Run_ClassifiesOutcomes(t *testing.T) {
	fetcher := &fakeFetcher{
		annual: map[string]*airquality.AnnualReport{
			"RI2": meanReport(airquality.PollutantPM10, "18.3"),
			"WA2": {}, // fetch succeeds, payload holds nothing
		},
		annualErr: map[string]error{
			"ME2": airquality.ErrProviderUnavailable,
		},
	}

	result, err := newCollector(fetcher).Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"RI2", "WA2", "ME2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
		StartYear:  2020,
		EndYear:    2021,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Total)
	assert.Len(t, result.Records, 2)
	assert.Len(t, result.NoData, 2)
	assert.Len(t, result.Failed, 2)

	// Every task lands in exactly one bucket.
	assert.Equal(t, result.Total, len(result.Records)+len(result.NoData)+len(result.Failed))

	for _, te := range result.Failed {
		assert.Equal(t, "ME2", te.Task.Site)
		assert.Contains(t, te.Err, "unavailable")
	}
	for _, task := range result.NoData {
		assert.Equal(t, "WA2", task.Site)
	}
	for _, rec := range result.Records {
		assert.Equal(t, "RI2", rec.Site)
		require.NotNil(t, rec.Annual)
		assert.Equal(t, 18.3, rec.Annual.Annual)
	}
}

func TestCollector_Run_SortsMissingListings(t *testing.T) {
	fetcher := &fakeFetcher{
		annual: map[string]*airquality.AnnualReport{
			"RI2": meanReport(airquality.PollutantPM10, "18.3"),
		},
	}

	result, err := newCollector(fetcher).Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"WA7", "ME2", "RI2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
		StartYear:  2018,
		EndYear:    2020,
	})
	require.NoError(t, err)

	require.Len(t, result.NoData, 6)
	for i := 1; i < len(result.NoData); i++ {
		prev, cur := result.NoData[i-1], result.NoData[i]
		if prev.Site == cur.Site {
			assert.LessOrEqual(t, prev.Year, cur.Year)
		} else {
			assert.Less(t, prev.Site, cur.Site)
		}
	}
}

func TestCollector_Run_NoData(t *testing.T) {
	fetcher := &fakeFetcher{}

	result, err := newCollector(fetcher).Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"RI2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantNO2},
		StartYear:  2020,
		EndYear:    2020,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, collector.ErrNoData)
	require.NotNil(t, result, "the classified result accompanies the error")
	assert.Equal(t, 1, result.Total)
	assert.Empty(t, result.Records)
}

func TestCollector_Run_ValidationAbortsBeforeFetching(t *testing.T) {
	fetcher := &fakeFetcher{}

	tests := []struct {
		name  string
		req   collector.Request
		field string
	}{
		{
			name:  "bad resolution",
			req:   collector.Request{Resolution: "weekly", Sites: []string{"RI2"}, Pollutants: []airquality.Pollutant{airquality.PollutantPM10}},
			field: "resolution",
		},
		{
			name:  "no sites",
			req:   collector.Request{Resolution: airquality.ResolutionAnnual, Pollutants: []airquality.Pollutant{airquality.PollutantPM10}},
			field: "sites",
		},
		{
			name:  "unknown site",
			req:   collector.Request{Resolution: airquality.ResolutionAnnual, Sites: []string{"XX9"}, Pollutants: []airquality.Pollutant{airquality.PollutantPM10}},
			field: "sites",
		},
		{
			name:  "unknown pollutant",
			req:   collector.Request{Resolution: airquality.ResolutionAnnual, Sites: []string{"RI2"}, Pollutants: []airquality.Pollutant{"SO2"}},
			field: "pollutants",
		},
		{
			name: "year below range",
			req: collector.Request{
				Resolution: airquality.ResolutionAnnual,
				Sites:      []string{"RI2"},
				Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
				StartYear:  1995, EndYear: 2005,
			},
			field: "start_year",
		},
		{
			name: "start year after end year",
			req: collector.Request{
				Resolution: airquality.ResolutionAnnual,
				Sites:      []string{"RI2"},
				Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
				StartYear:  2010, EndYear: 2005,
			},
			field: "start_year",
		},
		{
			name: "hourly range over cap",
			req: collector.Request{
				Resolution: airquality.ResolutionHourly,
				Sites:      []string{"RI2"},
				Pollutants: []airquality.Pollutant{airquality.PollutantNO2},
				StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			},
			field: "end_date",
		},
		{
			name: "daily range over cap",
			req: collector.Request{
				Resolution: airquality.ResolutionDaily,
				Sites:      []string{"RI2"},
				Pollutants: []airquality.Pollutant{airquality.PollutantNO2},
				StartDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			field: "end_date",
		},
		{
			name: "missing dates",
			req: collector.Request{
				Resolution: airquality.ResolutionDaily,
				Sites:      []string{"RI2"},
				Pollutants: []airquality.Pollutant{airquality.PollutantNO2},
			},
			field: "start_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCollector(fetcher).Run(context.Background(), tt.req)
			require.Error(t, err)

			var verr *collector.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.Zero(t, fetcher.annualCalls, "validation failures must not reach the provider")
	assert.Zero(t, fetcher.hourlyCalls)
}

func TestCollector_Run_HourlyTasksSharedRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)

	fetcher := &fakeFetcher{
		hourly: map[string]*airquality.HourlyReport{
			"RI2": {
				AirQualityData: airquality.AirQualityData{
					Data: []airquality.DataPoint{
						{SpeciesCode: "NO2", MeasurementDateGMT: "2024-06-01 01:00:00", Value: "40.0"},
					},
				},
			},
		},
	}

	result, err := newCollector(fetcher).Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionHourly,
		Sites:      []string{"RI2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantNO2, airquality.PollutantPM10},
		StartDate:  start,
		EndDate:    end,
	})
	require.NoError(t, err)

	// One task per (site, pollutant): NO2 has a point, PM10 does not.
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, fetcher.hourlyCalls)
	require.Len(t, result.Records, 1)
	assert.Equal(t, airquality.PollutantNO2, result.Records[0].Pollutant)
	require.Len(t, result.NoData, 1)
	assert.Equal(t, airquality.PollutantPM10, result.NoData[0].Pollutant)
}

func TestCollector_Run_ProgressCallback(t *testing.T) {
	fetcher := &fakeFetcher{
		annual: map[string]*airquality.AnnualReport{
			"RI2": meanReport(airquality.PollutantPM10, "18.3"),
		},
	}

	var calls atomic.Int64
	var lastTotal atomic.Int64
	coll := newCollector(fetcher, func(cfg *collector.Config) {
		cfg.OnProgress = func(completed, total int) {
			calls.Add(1)
			lastTotal.Store(int64(total))
		}
	})

	result, err := coll.Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"RI2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
		StartYear:  2018,
		EndYear:    2022,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(result.Total), calls.Load(), "progress fires once per task")
	assert.Equal(t, int64(result.Total), lastTotal.Load())
}

func TestCollector_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{
		annual: map[string]*airquality.AnnualReport{
			"RI2": meanReport(airquality.PollutantPM10, "18.3"),
		},
	}

	result, err := newCollector(fetcher).Run(ctx, collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"RI2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
		StartYear:  2020,
		EndYear:    2023,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, collector.ErrNoData)
	require.NotNil(t, result)

	require.Len(t, result.Failed, result.Total)
	for _, te := range result.Failed {
		assert.Contains(t, te.Err, context.Canceled.Error())
	}
}

func TestCollector_Run_FailureErrorPreserved(t *testing.T) {
	sentinel := errors.New("socket reset by peer")
	fetcher := &fakeFetcher{
		annual: map[string]*airquality.AnnualReport{
			"RI2": meanReport(airquality.PollutantPM10, "18.3"),
		},
		annualErr: map[string]error{"WA2": sentinel},
	}

	result, err := newCollector(fetcher).Run(context.Background(), collector.Request{
		Resolution: airquality.ResolutionAnnual,
		Sites:      []string{"RI2", "WA2"},
		Pollutants: []airquality.Pollutant{airquality.PollutantPM10},
		StartYear:  2020,
		EndYear:    2020,
	})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, sentinel.Error(), result.Failed[0].Err)
}

func TestTask_Label(t *testing.T) {
	annual := collector.Task{Site: "RI2", Pollutant: airquality.PollutantPM10, Year: 2003}
	assert.Equal(t, "PM10 at RI2 for 2003", annual.Label())

	hourly := collector.Task{Site: "RI2", Pollutant: airquality.PollutantPM10}
	assert.Equal(t, "PM10 at RI2", hourly.Label())
}
