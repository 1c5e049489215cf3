package models

// Site is one monitoring site catalog entry.
type Site struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SiteList wraps the site catalog.
type SiteList struct {
	Items []Site `json:"items"`
}

// PollutantInfo describes a pollutant and its regulatory reference values
// (annual means, µg/m³).
type PollutantInfo struct {
	Code         string  `json:"code"`
	WHOGuideline float64 `json:"whoGuideline"`
	UKLegalLimit float64 `json:"ukLegalLimit"`
}

// PollutantList wraps the pollutant catalog.
type PollutantList struct {
	Items []PollutantInfo `json:"items"`
}

// Enums lists the enumerated values accepted by the API.
type Enums struct {
	Resolutions []string `json:"resolutions"`
	Pollutants  []string `json:"pollutants"`
	Sites       []string `json:"sites"`
}
