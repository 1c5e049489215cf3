package handler

import (
	"net/http"

	"github.com/airtrends/airtrends/internal/airquality"
	"github.com/airtrends/airtrends/internal/api/models"
	"github.com/airtrends/airtrends/internal/api/response"
)

// MetadataHandler handles catalog endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// ListSites handles GET /v1/metadata/sites.
func (h *MetadataHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites := airquality.Sites()
	list := models.SiteList{Items: make([]models.Site, 0, len(sites))}
	for _, s := range sites {
		list.Items = append(list.Items, models.Site{Code: s.Code, Name: s.Name})
	}
	response.JSON(w, r, http.StatusOK, list)
}

// ListPollutants handles GET /v1/metadata/pollutants, including the
// regulatory reference values used for chart threshold lines.
func (h *MetadataHandler) ListPollutants(w http.ResponseWriter, r *http.Request) {
	list := models.PollutantList{}
	for _, p := range airquality.Pollutants() {
		limits := airquality.ReferenceLimits[p]
		list.Items = append(list.Items, models.PollutantInfo{
			Code:         string(p),
			WHOGuideline: limits.WHOGuideline,
			UKLegalLimit: limits.UKLegalLimit,
		})
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetEnums handles GET /v1/metadata/enums.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Resolutions: []string{
			string(airquality.ResolutionAnnual),
			string(airquality.ResolutionMonthly),
			string(airquality.ResolutionDaily),
			string(airquality.ResolutionHourly),
		},
	}
	for _, p := range airquality.Pollutants() {
		enums.Pollutants = append(enums.Pollutants, string(p))
	}
	for _, s := range airquality.Sites() {
		enums.Sites = append(enums.Sites, s.Code)
	}
	response.JSON(w, r, http.StatusOK, enums)
}
