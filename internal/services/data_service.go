package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"ecdash/internal/analytics"
	"ecdash/internal/exporter"
	"ecdash/internal/infrastructure"
	"ecdash/pkg/contracts/domain"
)

// EnvironmentView is everything the environment tab shows.
type EnvironmentView struct {
	Filter   string                  `json:"filter"`
	Averages []analytics.SiteAverage `json:"averages"`
	Series   []analytics.SiteSeries  `json:"series"`
	Table    domain.Table            `json:"table"`
}

// ECCard is one EC level on the growth tab.
type ECCard struct {
	analytics.ECGroup
	Optimal bool `json:"optimal"`
}

// MarshalJSON appends the optimal flag to the group's own encoding, which
// would otherwise be promoted and drop it.
func (c ECCard) MarshalJSON() ([]byte, error) {
	group, err := json.Marshal(c.ECGroup)
	if err != nil {
		return nil, err
	}
	out := append(group[:len(group)-1], `,"optimal":`...)
	out = strconv.AppendBool(out, c.Optimal)
	return append(out, '}'), nil
}

// GrowthSummary is the per-EC aggregation with the optimal level flagged.
type GrowthSummary struct {
	Groups  []ECCard          `json:"groups"`
	Optimal *analytics.ECGroup `json:"optimal,omitempty"`
}

// GrowthView is everything the growth tab shows.
type GrowthView struct {
	GrowthSummary
	Distribution []analytics.SiteDistribution `json:"distribution"`
	LeafScatter  []analytics.SiteScatter      `json:"leaf_scatter"`
	ShootScatter []analytics.SiteScatter      `json:"shoot_scatter"`
	Table        domain.Table                 `json:"table"`
}

// DataService turns the cached dataset into the views served by the dashboard.
type DataService struct {
	cache   *DatasetCache
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewDataService creates a data service reading through cache. metrics may be nil.
func NewDataService(cache *DatasetCache, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DataService {
	return &DataService{
		cache:   cache,
		logger:  infrastructure.WithComponent(logger, "data_service"),
		metrics: metrics,
	}
}

// Dataset returns the loaded dataset. Load failures are returned unchanged so
// that callers can match MissingFileError and friends.
func (s *DataService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	return s.cache.Get(ctx)
}

// Overview returns the overview tab summary.
func (s *DataService) Overview(ctx context.Context) (*analytics.OverviewSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	summary := analytics.Overview(ds)
	return &summary, nil
}

// SiteAverages returns the per-site environment averages.
func (s *DataService) SiteAverages(ctx context.Context) ([]analytics.SiteAverage, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SiteAverages(ds), nil
}

// TimeSeries returns the time series selected by filter. The filter is
// checked before the dataset is touched.
func (s *DataService) TimeSeries(ctx context.Context, filter string) ([]analytics.SiteSeries, error) {
	if _, err := analytics.SitesForFilter(filter); err != nil {
		return nil, err
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TimeSeries(ds, filter)
}

// EnvironmentView assembles the environment tab. Only the time series honor
// the filter; the averages and the raw table always cover every site.
func (s *DataService) EnvironmentView(ctx context.Context, filter string) (*EnvironmentView, error) {
	sites, err := analytics.SitesForFilter(filter)
	if err != nil {
		return nil, err
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	series, err := analytics.TimeSeries(ds, filter)
	if err != nil {
		return nil, err
	}
	if analytics.IsAllSites(filter) {
		filter = domain.AllSites
	} else {
		filter = sites[0].Name
	}
	return &EnvironmentView{
		Filter:   filter,
		Averages: analytics.SiteAverages(ds),
		Series:   series,
		Table:    ds.EnvironmentFrame(),
	}, nil
}

// GrowthSummary groups growth records by EC and flags the optimal level.
func (s *DataService) GrowthSummary(ctx context.Context) (*GrowthSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeGrowth(ds), nil
}

func summarizeGrowth(ds *domain.Dataset) *GrowthSummary {
	groups := analytics.GroupByEC(ds.GrowthRecords())
	out := &GrowthSummary{Groups: make([]ECCard, len(groups))}

	best, ok := analytics.OptimalEC(groups)
	if ok {
		out.Optimal = &best
	}
	for i, g := range groups {
		out.Groups[i] = ECCard{ECGroup: g, Optimal: ok && g.EC == best.EC}
	}
	return out
}

// GrowthView assembles the growth tab.
func (s *DataService) GrowthView(ctx context.Context) (*GrowthView, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &GrowthView{
		GrowthSummary: *summarizeGrowth(ds),
		Distribution:  analytics.FreshWeightDistribution(ds),
		LeafScatter:   analytics.Correlation(ds, analytics.LeafCount),
		ShootScatter:  analytics.Correlation(ds, analytics.ShootLength),
		Table:         ds.GrowthFrame(),
	}, nil
}

// OptimalEC returns the EC level with the largest mean fresh weight.
func (s *DataService) OptimalEC(ctx context.Context) (*analytics.ECGroup, error) {
	summary, err := s.GrowthSummary(ctx)
	if err != nil {
		return nil, err
	}
	if summary.Optimal == nil {
		return nil, ErrNoGrowthData
	}
	return summary.Optimal, nil
}

// ExportEnvironment writes every environment row as CSV, regardless of any
// dashboard filter.
func (s *DataService) ExportEnvironment(ctx context.Context, w io.Writer) error {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: w}
	if err := exporter.WriteEnvironmentCSV(cw, ds.EnvironmentFrame()); err != nil {
		return fmt.Errorf("environment export: %w", err)
	}
	s.recordExport(ctx, "environment_csv", cw.n)
	return nil
}

// ExportGrowth writes every growth row into a single-sheet workbook.
func (s *DataService) ExportGrowth(ctx context.Context, w io.Writer) error {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: w}
	if err := exporter.WriteGrowthWorkbook(cw, ds.GrowthFrame()); err != nil {
		return fmt.Errorf("growth export: %w", err)
	}
	s.recordExport(ctx, "growth_xlsx", cw.n)
	return nil
}

func (s *DataService) recordExport(ctx context.Context, kind string, n int64) {
	infrastructure.RecordExport(ctx, s.metrics, kind, n)
	s.logger.InfoContext(ctx, "export written",
		slog.String("kind", kind),
		slog.Int64("bytes", n))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
