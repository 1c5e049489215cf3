// Package export renders collected series as downloadable artifacts.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/airtrends/airtrends/internal/airquality"
)

// Time column formats per resolution.
const (
	monthlyLayout = "2006-01"
	dailyLayout   = "2006-01-02"
	hourlyLayout  = "2006-01-02 15:04"
)

// WriteCSV writes the joined flat table for the given series to w. Columns
// vary by resolution in the leading period column only; gap points are not
// exported. Values are rounded to two decimals.
func WriteCSV(w io.Writer, res airquality.Resolution, series []airquality.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header(res)); err != nil {
		return err
	}

	for _, s := range series {
		for _, p := range s.Points {
			if p.Value == nil {
				continue
			}
			row := []string{
				formatPeriod(res, p.Time),
				s.Key.Site,
				airquality.SiteName(s.Key.Site),
				string(s.Key.Pollutant),
				strconv.FormatFloat(round2(*p.Value), 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func header(res airquality.Resolution) []string {
	period := "timestamp"
	switch res {
	case airquality.ResolutionAnnual:
		period = "year"
	case airquality.ResolutionMonthly, airquality.ResolutionDaily:
		period = "date"
	}
	return []string{period, "site", "site_name", "pollutant", "value"}
}

func formatPeriod(res airquality.Resolution, t time.Time) string {
	switch res {
	case airquality.ResolutionAnnual:
		return strconv.Itoa(t.Year())
	case airquality.ResolutionMonthly:
		return t.Format(monthlyLayout)
	case airquality.ResolutionDaily:
		return t.Format(dailyLayout)
	default:
		return t.Format(hourlyLayout)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
