package models

// CollectionRequest is the body for POST /v1/collections. Year bounds are
// used by annual/monthly runs, dates (ISO YYYY-MM-DD) by daily/hourly runs.
type CollectionRequest struct {
	Resolution string   `json:"resolution" validate:"required,oneof=annual monthly daily hourly"`
	Sites      []string `json:"sites" validate:"required,min=1,dive,required"`
	Pollutants []string `json:"pollutants" validate:"required,min=1,dive,oneof=PM10 PM25 NO2"`

	StartYear int `json:"startYear,omitempty" validate:"omitempty,gte=2000,lte=2024"`
	EndYear   int `json:"endYear,omitempty" validate:"omitempty,gte=2000,lte=2024"`

	StartDate string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// FailedCombination reports one combination whose fetch failed.
type FailedCombination struct {
	Combination string `json:"combination"`
	Error       string `json:"error"`
}

// RunSummary aggregates the outcome of one collection run.
type RunSummary struct {
	Resolution string    `json:"resolution"`
	StartedAt  Timestamp `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`

	TotalTasks   int `json:"totalTasks"`
	SuccessCount int `json:"successCount"`
	NoDataCount  int `json:"noDataCount"`
	FailedCount  int `json:"failedCount"`

	// MissingCombinations lists combinations that returned no data.
	MissingCombinations []string `json:"missingCombinations"`

	// FailedCombinations lists combinations whose fetch failed outright.
	FailedCombinations []FailedCombination `json:"failedCombinations"`

	Stats        RunStats        `json:"stats"`
	Completeness RunCompleteness `json:"completeness"`
}

// RunStats carries summary statistics over all collected points.
type RunStats struct {
	DataPoints int     `json:"dataPoints"`
	Sites      int     `json:"sites"`
	Pollutants int     `json:"pollutants"`
	MeanValue  float64 `json:"meanValue"`
}

// RunCompleteness compares collected points against the theoretical
// maximum for the requested window.
type RunCompleteness struct {
	Collected int     `json:"collected"`
	Possible  int     `json:"possible"`
	Percent   float64 `json:"percent"`
}

// SeriesPoint is one evenly spaced chart position. Value is null at gaps
// so renderers break the line instead of interpolating.
type SeriesPoint struct {
	Position string   `json:"position"`
	Value    *float64 `json:"value"`
}

// Series is one gap-filled chart series.
type Series struct {
	Pollutant string        `json:"pollutant"`
	Site      string        `json:"site"`
	SiteName  string        `json:"siteName"`
	Label     string        `json:"label"`
	Points    []SeriesPoint `json:"points"`
}

// CollectionResponse is the payload for collection run and latest-result
// endpoints.
type CollectionResponse struct {
	Summary RunSummary `json:"summary"`
	Series  []Series   `json:"series"`
}
