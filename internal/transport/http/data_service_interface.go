package http

import (
	"context"
	"io"

	"ecdash/internal/analytics"
	"ecdash/internal/services"
)

// DataServiceInterface is the part of services.DataService the handlers use.
type DataServiceInterface interface {
	Overview(ctx context.Context) (*analytics.OverviewSummary, error)
	SiteAverages(ctx context.Context) ([]analytics.SiteAverage, error)
	TimeSeries(ctx context.Context, filter string) ([]analytics.SiteSeries, error)
	EnvironmentView(ctx context.Context, filter string) (*services.EnvironmentView, error)
	GrowthSummary(ctx context.Context) (*services.GrowthSummary, error)
	GrowthView(ctx context.Context) (*services.GrowthView, error)
	ExportEnvironment(ctx context.Context, w io.Writer) error
	ExportGrowth(ctx context.Context, w io.Writer) error
}

// ChartRenderer draws the dashboard charts. *charts.Renderer implements it.
type ChartRenderer interface {
	EnvironmentAverages(w io.Writer, averages []analytics.SiteAverage) error
	TimeSeries(w io.Writer, s analytics.SiteSeries) error
	GrowthByEC(w io.Writer, groups []analytics.ECGroup) error
	FreshWeightBoxPlot(w io.Writer, dists []analytics.SiteDistribution) error
	Scatter(w io.Writer, title, xLabel string, scatters []analytics.SiteScatter) error
}
