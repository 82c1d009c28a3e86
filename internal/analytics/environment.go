package analytics

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"ecdash/pkg/contracts/domain"
)

// ErrUnknownSite is returned for a site filter that names no site.
var ErrUnknownSite = errors.New("unknown site")

// SiteAverage is one row of the environment comparison table.
type SiteAverage struct {
	Site        string  `json:"site"`
	Color       string  `json:"color"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	ECMeasured  float64 `json:"ec_measured"`
	ECTarget    float64 `json:"ec_target"`
}

// SiteAverages averages every numeric environment column per site, in site order.
func SiteAverages(ds *domain.Dataset) []SiteAverage {
	var out []SiteAverage
	for _, t := range ds.EnvironmentTables() {
		n := len(t.Readings)
		temp, hum, ph, ec := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		for i, r := range t.Readings {
			temp[i], hum[i], ph[i], ec[i] = r.Temperature, r.Humidity, r.PH, r.EC
		}
		out = append(out, SiteAverage{
			Site:        t.Site.Name,
			Color:       t.Site.Color,
			Temperature: Mean(temp),
			Humidity:    Mean(hum),
			PH:          Mean(ph),
			ECMeasured:  Mean(ec),
			ECTarget:    t.Site.TargetEC,
		})
	}
	return out
}

// SeriesPoint is one reading on the time-series chart.
type SeriesPoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	EC          float64   `json:"ec"`
}

// SiteSeries is the time series of one site with its target EC reference line.
type SiteSeries struct {
	Site     string        `json:"site"`
	Color    string        `json:"color"`
	TargetEC float64       `json:"target_ec"`
	Points   []SeriesPoint `json:"points"`
}

// SitesForFilter expands a site filter. An empty filter, "all" or "전체"
// selects every site in display order; anything else must name exactly one site.
func SitesForFilter(filter string) ([]domain.Site, error) {
	if IsAllSites(filter) {
		return domain.Sites(), nil
	}
	site, ok := domain.LookupSite(filter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, norm.NFC.String(filter))
	}
	return []domain.Site{site}, nil
}

// IsAllSites reports whether filter selects every site.
func IsAllSites(filter string) bool {
	return filter == "" || filter == domain.AllSites || norm.NFC.String(filter) == domain.AllSitesLabel
}

// TimeSeries returns the readings of the filtered sites in source order.
// Readings without a timestamp are left out.
func TimeSeries(ds *domain.Dataset, filter string) ([]SiteSeries, error) {
	selected, err := SitesForFilter(filter)
	if err != nil {
		return nil, err
	}

	out := make([]SiteSeries, 0, len(selected))
	for _, site := range selected {
		t, ok := ds.Environment[site.Name]
		if !ok {
			continue
		}
		series := SiteSeries{
			Site:     site.Name,
			Color:    site.Color,
			TargetEC: site.TargetEC,
			Points:   make([]SeriesPoint, 0, len(t.Readings)),
		}
		for _, r := range t.Readings {
			if r.Time.IsZero() {
				continue
			}
			series.Points = append(series.Points, SeriesPoint{Time: r.Time, Temperature: r.Temperature, Humidity: r.Humidity, EC: r.EC})
		}
		out = append(out, series)
	}
	return out, nil
}
