package analytics

import (
	"ecdash/pkg/contracts/domain"
)

// SiteOverview is one row of the overview table.
type SiteOverview struct {
	Site       string   `json:"site"`
	TargetEC   *float64 `json:"target_ec"`
	PlantCount int      `json:"plant_count"`
	Color      string   `json:"color"`
}

// OverviewSummary feeds the overview tab.
type OverviewSummary struct {
	TotalPlants    int            `json:"total_plants"`
	AvgTemperature float64        `json:"avg_temperature"`
	AvgHumidity    float64        `json:"avg_humidity"`
	OptimalEC      float64        `json:"optimal_ec"`
	Sites          []SiteOverview `json:"sites"`
}

// Overview counts plants per growth sheet and averages temperature and humidity
// over all readings pooled together, not per site.
func Overview(ds *domain.Dataset) OverviewSummary {
	summary := OverviewSummary{OptimalEC: domain.ReferenceOptimalEC}

	for _, t := range ds.GrowthTables() {
		count := len(t.Records)
		summary.TotalPlants += count
		summary.Sites = append(summary.Sites, SiteOverview{
			Site:       t.SheetName,
			TargetEC:   t.TargetEC,
			PlantCount: count,
			Color:      domain.ColorFor(t.SheetName),
		})
	}

	readings := ds.Readings()
	temps := make([]float64, len(readings))
	hums := make([]float64, len(readings))
	for i, r := range readings {
		temps[i] = r.Temperature
		hums[i] = r.Humidity
	}
	summary.AvgTemperature = Mean(temps)
	summary.AvgHumidity = Mean(hums)

	return summary
}
