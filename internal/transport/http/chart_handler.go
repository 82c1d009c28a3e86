package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"ecdash/internal/analytics"
	"ecdash/internal/charts"
	apierrors "ecdash/internal/errors"
	"ecdash/internal/infrastructure"
)

// Scatter kinds served under /charts/growth/scatter/{kind}.svg.
const (
	ScatterLeaves = "leaves"
	ScatterShoot  = "shoot"
)

// ChartHandler serves the dashboard charts as SVG images.
type ChartHandler struct {
	service      DataServiceInterface
	renderer     ChartRenderer
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a chart handler. metrics may be nil.
func NewChartHandler(service DataServiceInterface, renderer ChartRenderer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		service:      service,
		renderer:     renderer,
		metrics:      metrics,
		logger:       infrastructure.WithComponent(logger, "chart_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/environment/averages.svg", h.EnvironmentAverages)
	r.Get("/environment/timeseries/{site}.svg", h.TimeSeries)
	r.Get("/growth/ec.svg", h.GrowthByEC)
	r.Get("/growth/boxplot.svg", h.FreshWeightBoxPlot)
	r.Get("/growth/scatter/{kind}.svg", h.Scatter)
	return r
}

// EnvironmentAverages handles GET /charts/environment/averages.svg
func (h *ChartHandler) EnvironmentAverages(w http.ResponseWriter, r *http.Request) {
	averages, err := h.service.SiteAverages(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, "environment_averages", func(buf io.Writer) error {
		return h.renderer.EnvironmentAverages(buf, averages)
	})
}

// TimeSeries handles GET /charts/environment/timeseries/{site}.svg. Exactly
// one site is drawn per image.
func (h *ChartHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	site, err := url.PathUnescape(chi.URLParam(r, "site"))
	if err != nil || analytics.IsAllSites(site) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("site", "a single site name is required"))
		return
	}

	series, err := h.service.TimeSeries(r.Context(), site)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if len(series) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrNotFound)
		return
	}
	h.render(w, r, "environment_timeseries", func(buf io.Writer) error {
		return h.renderer.TimeSeries(buf, series[0])
	})
}

// GrowthByEC handles GET /charts/growth/ec.svg
func (h *ChartHandler) GrowthByEC(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GrowthSummary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	groups := make([]analytics.ECGroup, len(summary.Groups))
	for i, card := range summary.Groups {
		groups[i] = card.ECGroup
	}
	h.render(w, r, "growth_ec", func(buf io.Writer) error {
		return h.renderer.GrowthByEC(buf, groups)
	})
}

// FreshWeightBoxPlot handles GET /charts/growth/boxplot.svg
func (h *ChartHandler) FreshWeightBoxPlot(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GrowthView(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, "growth_boxplot", func(buf io.Writer) error {
		return h.renderer.FreshWeightBoxPlot(buf, view.Distribution)
	})
}

// Scatter handles GET /charts/growth/scatter/{kind}.svg
func (h *ChartHandler) Scatter(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != ScatterLeaves && kind != ScatterShoot {
		h.errorHandler.NotFound(w, r)
		return
	}

	view, err := h.service.GrowthView(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, "growth_scatter_"+kind, func(buf io.Writer) error {
		if kind == ScatterLeaves {
			return h.renderer.Scatter(buf, "잎 수 vs 생중량", "잎 수(장)", view.LeafScatter)
		}
		return h.renderer.Scatter(buf, "지상부 길이 vs 생중량", "지상부 길이(mm)", view.ShootScatter)
	})
}

// render draws into a buffer first so a failed chart still gets a problem
// response instead of a truncated image.
func (h *ChartHandler) render(w http.ResponseWriter, r *http.Request, name string, draw func(io.Writer) error) {
	var buf bytes.Buffer
	start := time.Now()
	err := draw(&buf)
	infrastructure.RecordChartRender(r.Context(), h.metrics, name, time.Since(start), err)

	if err != nil {
		if errors.Is(err, charts.ErrNoData) {
			h.errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "NOT_FOUND", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "chart rendered",
		slog.String("chart", name),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", time.Since(start)))

	w.Header().Set("Content-Type", charts.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
