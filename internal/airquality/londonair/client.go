// Package londonair provides a client for the London Air (Imperial College
// ERG) air quality API.
package londonair

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/airtrends/airtrends/internal/airquality"
	"github.com/airtrends/airtrends/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the London Air API.
	DefaultBaseURL = "https://api.erg.ic.ac.uk/AirQuality"

	// ProviderName identifies this provider in the health registry.
	ProviderName = "londonair"

	// DefaultAnnualTimeout bounds the small annual report lookups.
	DefaultAnnualTimeout = 10 * time.Second

	// DefaultHourlyTimeout bounds the bulk raw data pulls, whose payloads
	// run to months of hourly rows.
	DefaultHourlyTimeout = 30 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the London Air client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// AnnualClient executes annual report requests. If nil, a resilient
	// client with DefaultAnnualTimeout is created.
	AnnualClient HTTPDoer

	// HourlyClient executes raw data requests. If nil, a resilient client
	// with DefaultHourlyTimeout is created.
	HourlyClient HTTPDoer

	// Registry receives success/failure outcomes for ops health reporting.
	// May be nil.
	Registry *resilience.Registry
}

// Client is a London Air API client. It is stateless and safe for
// concurrent use.
type Client struct {
	baseURL      string
	annualClient HTTPDoer
	hourlyClient HTTPDoer
	registry     *resilience.Registry
}

// NewClient creates a new London Air client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	annualClient := cfg.AnnualClient
	if annualClient == nil {
		annualClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: DefaultAnnualTimeout,
		})
	}

	hourlyClient := cfg.HourlyClient
	if hourlyClient == nil {
		hourlyClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName + "-bulk",
			Timeout: DefaultHourlyTimeout,
		})
	}

	if cfg.Registry != nil {
		if rc, ok := annualClient.(*resilience.Client); ok {
			cfg.Registry.Register(ProviderName, rc)
		}
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		annualClient: annualClient,
		hourlyClient: hourlyClient,
		registry:     cfg.Registry,
	}
}

// FetchAnnualReport retrieves the annual monitoring report for a site and
// year. Transport failures are reported as airquality.ErrProviderUnavailable
// and undecodable bodies as airquality.ErrMalformedResponse; callers never
// see a raw transport error.
func (c *Client) FetchAnnualReport(ctx context.Context, site string, year int) (*airquality.AnnualReport, error) {
	url := fmt.Sprintf("%s/Annual/MonitoringReport/SiteCode=%s/Year=%d/json", c.baseURL, site, year)

	var report airquality.AnnualReport
	if err := c.getJSON(ctx, c.annualClient, url, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// FetchHourlyData retrieves raw measurements for a site across an inclusive
// date range. Dates are formatted as ISO calendar dates; pollutant
// filtering happens in extraction, not here.
func (c *Client) FetchHourlyData(ctx context.Context, site string, start, end time.Time) (*airquality.HourlyReport, error) {
	url := fmt.Sprintf("%s/Data/Site/SiteCode=%s/StartDate=%s/EndDate=%s/Json",
		c.baseURL, site, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var report airquality.HourlyReport
	if err := c.getJSON(ctx, c.hourlyClient, url, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) getJSON(ctx context.Context, doer HTTPDoer, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", airquality.ErrProviderUnavailable, err)
	}

	resp, err := doer.Do(req)
	if err != nil {
		c.recordFailure(err)
		return fmt.Errorf("%w: %v", airquality.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: unexpected status %d", airquality.ErrProviderUnavailable, resp.StatusCode)
		c.recordFailure(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err := fmt.Errorf("%w: %v", airquality.ErrMalformedResponse, err)
		c.recordFailure(err)
		return err
	}

	c.recordSuccess()
	return nil
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}
