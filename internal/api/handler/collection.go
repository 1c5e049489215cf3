// Package handler provides HTTP handlers for the airtrends API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/airtrends/airtrends/internal/airquality"
	"github.com/airtrends/airtrends/internal/api/models"
	"github.com/airtrends/airtrends/internal/api/response"
	"github.com/airtrends/airtrends/internal/collector"
	"github.com/airtrends/airtrends/internal/export"
	"github.com/airtrends/airtrends/internal/session"
)

const dateLayout = "2006-01-02"

// CollectionHandler handles collection run endpoints.
type CollectionHandler struct {
	collector *collector.Collector
	store     *session.Store
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(c *collector.Collector, store *session.Store, logger zerolog.Logger) *CollectionHandler {
	return &CollectionHandler{
		collector: c,
		store:     store,
		validate:  validator.New(),
		logger:    logger,
	}
}

// RunCollection handles POST /v1/collections. The run executes
// synchronously and replaces the stored latest result on success.
func (h *CollectionHandler) RunCollection(w http.ResponseWriter, r *http.Request) {
	var body models.CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, r, "request body is not valid JSON", nil)
		return
	}

	if err := h.validate.Struct(&body); err != nil {
		response.BadRequest(w, r, "invalid collection request", fieldErrors(err))
		return
	}

	req, err := toCollectorRequest(&body)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	run, err := h.collector.Run(r.Context(), req)
	switch {
	case err == nil:
		// fall through
	case errors.Is(err, collector.ErrNoData):
		response.NoData(w, r, fmt.Sprintf(
			"no data could be retrieved for any combination of sites, pollutants, and time period (%d no-data, %d failed of %d tasks)",
			len(run.NoData), len(run.Failed), run.Total))
		return
	default:
		var verr *collector.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, verr.Message, []models.FieldError{
				{Field: verr.Field, Message: verr.Message},
			})
			return
		}
		response.Internal(w, r, "collection run failed")
		return
	}

	result := h.store.Replace(run)
	response.JSON(w, r, http.StatusOK, toCollectionResponse(req, result))
}

// GetLatest handles GET /v1/collections/latest.
func (h *CollectionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result := h.store.Current()
	if result == nil {
		response.NotFound(w, r, "no collection run has completed yet")
		return
	}
	response.JSON(w, r, http.StatusOK, toStoredResponse(result))
}

// ExportCSV handles GET /v1/collections/latest/export.csv.
func (h *CollectionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	result := h.store.Current()
	if result == nil {
		response.NotFound(w, r, "no collection run has completed yet")
		return
	}

	filename := "air_quality_data_" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteCSV(w, result.Run.Resolution, result.Series); err != nil {
		h.logger.Error().Err(err).Msg("csv export failed")
	}
}

// ClearLatest handles DELETE /v1/collections/latest.
func (h *CollectionHandler) ClearLatest(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	response.JSON(w, r, http.StatusNoContent, nil)
}

// toCollectorRequest converts the API body to a domain request. Date
// parsing is the only conversion that can fail; range semantics are
// checked by the collector before any fetch.
func toCollectorRequest(body *models.CollectionRequest) (collector.Request, error) {
	req := collector.Request{
		Resolution: airquality.Resolution(body.Resolution),
		Sites:      body.Sites,
		StartYear:  body.StartYear,
		EndYear:    body.EndYear,
	}
	for _, p := range body.Pollutants {
		req.Pollutants = append(req.Pollutants, airquality.Pollutant(p))
	}

	if !req.Resolution.YearBased() {
		start, err := time.Parse(dateLayout, body.StartDate)
		if err != nil {
			return req, fmt.Errorf("invalid startDate: expected %s", dateLayout)
		}
		end, err := time.Parse(dateLayout, body.EndDate)
		if err != nil {
			return req, fmt.Errorf("invalid endDate: expected %s", dateLayout)
		}
		req.StartDate = start.UTC()
		req.EndDate = end.UTC()
	}

	return req, nil
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
			Code:    fe.Tag(),
		})
	}
	return out
}

func toCollectionResponse(req collector.Request, result *session.Result) models.CollectionResponse {
	resp := toStoredResponse(result)
	resp.Summary.Completeness = completeness(req, result.Run)
	return resp
}

func toStoredResponse(result *session.Result) models.CollectionResponse {
	run := result.Run

	summary := models.RunSummary{
		Resolution:          string(run.Resolution),
		StartedAt:           models.Timestamp(run.StartedAt),
		DurationMS:          run.Duration.Milliseconds(),
		TotalTasks:          run.Total,
		SuccessCount:        len(run.Records),
		NoDataCount:         len(run.NoData),
		FailedCount:         len(run.Failed),
		MissingCombinations: make([]string, 0, len(run.NoData)),
		FailedCombinations:  make([]models.FailedCombination, 0, len(run.Failed)),
		Stats:               runStats(run),
	}
	for _, t := range run.NoData {
		summary.MissingCombinations = append(summary.MissingCombinations, t.Label())
	}
	for _, f := range run.Failed {
		summary.FailedCombinations = append(summary.FailedCombinations, models.FailedCombination{
			Combination: f.Task.Label(),
			Error:       f.Err,
		})
	}

	series := make([]models.Series, 0, len(result.Series))
	for i := range result.Series {
		series = append(series, toSeriesModel(&result.Series[i]))
	}

	return models.CollectionResponse{Summary: summary, Series: series}
}

func toSeriesModel(s *airquality.Series) models.Series {
	siteName := airquality.SiteName(s.Key.Site)
	out := models.Series{
		Pollutant: string(s.Key.Pollutant),
		Site:      s.Key.Site,
		SiteName:  siteName,
		Label:     fmt.Sprintf("%s - %s (%s)", s.Key.Pollutant, s.Key.Site, siteName),
		Points:    make([]models.SeriesPoint, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		out.Points = append(out.Points, models.SeriesPoint{
			Position: formatPosition(s.Resolution, p.Time),
			Value:    p.Value,
		})
	}
	return out
}

func formatPosition(res airquality.Resolution, t time.Time) string {
	switch res {
	case airquality.ResolutionAnnual:
		return strconv.Itoa(t.Year())
	case airquality.ResolutionMonthly:
		return t.Format("2006-01")
	case airquality.ResolutionDaily:
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func runStats(run *collector.RunResult) models.RunStats {
	sites := make(map[string]struct{})
	pollutants := make(map[airquality.Pollutant]struct{})
	var sum float64
	var count int

	for _, rec := range run.Records {
		sites[rec.Site] = struct{}{}
		pollutants[rec.Pollutant] = struct{}{}

		switch {
		case rec.Annual != nil && rec.Annual.Monthly != nil:
			for _, v := range rec.Annual.Monthly {
				sum += v
				count++
			}
		case rec.Annual != nil:
			sum += rec.Annual.Annual
			count++
		default:
			for _, p := range rec.Points {
				sum += p.Value
				count++
			}
		}
	}

	stats := models.RunStats{
		DataPoints: count,
		Sites:      len(sites),
		Pollutants: len(pollutants),
	}
	if count > 0 {
		stats.MeanValue = math.Round(sum/float64(count)*100) / 100
	}
	return stats
}

// completeness compares collected points against the theoretical maximum
// for the requested window.
func completeness(req collector.Request, run *collector.RunResult) models.RunCompleteness {
	combos := len(req.Sites) * len(req.Pollutants)
	var possible int
	switch req.Resolution {
	case airquality.ResolutionAnnual:
		possible = (req.EndYear - req.StartYear + 1) * combos
	case airquality.ResolutionMonthly:
		possible = (req.EndYear - req.StartYear + 1) * 12 * combos
	case airquality.ResolutionDaily:
		days := int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
		possible = days * combos
	case airquality.ResolutionHourly:
		days := int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
		possible = days * 24 * combos
	}

	collected := runStats(run).DataPoints
	c := models.RunCompleteness{Collected: collected, Possible: possible}
	if possible > 0 {
		c.Percent = math.Round(float64(collected)/float64(possible)*1000) / 10
	}
	return c
}
