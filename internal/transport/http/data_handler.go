package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "ecdash/internal/errors"
	"ecdash/internal/infrastructure"
	ecmw "ecdash/internal/middleware"
	api "ecdash/pkg/contracts/api/v1"
	"ecdash/pkg/contracts/domain"
)

// DataHandler serves the aggregates as JSON under /api/v1.
type DataHandler struct {
	service      DataServiceInterface
	validator    *ecmw.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, validator *ecmw.QueryValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       infrastructure.WithComponent(logger, "data_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the API routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Route("/environment", func(r chi.Router) {
		r.Get("/", h.GetEnvironment)
		r.Get("/averages", h.GetSiteAverages)
		r.Get("/series", h.GetTimeSeries)
	})
	r.Route("/growth", func(r chi.Router) {
		r.Get("/ec", h.GetGrowthByEC)
		r.Get("/distribution", h.GetGrowthView)
	})
	return r
}

// GetOverview handles GET /api/v1/overview
func (h *DataHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, overview, len(overview.Sites))
}

// GetSiteAverages handles GET /api/v1/environment/averages
func (h *DataHandler) GetSiteAverages(w http.ResponseWriter, r *http.Request) {
	averages, err := h.service.SiteAverages(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, averages, len(averages))
}

// GetTimeSeries handles GET /api/v1/environment/series?site=
func (h *DataHandler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	req := api.SeriesRequest{Site: r.URL.Query().Get("site")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if req.Site == "" {
		req.Site = domain.AllSites
	}

	series, err := h.service.TimeSeries(r.Context(), req.Site)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, series, len(series))
}

// GetEnvironment handles GET /api/v1/environment?site=
func (h *DataHandler) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	q, err := h.validator.ParseDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.EnvironmentView(r.Context(), q.Site)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, view, view.Table.Len())
}

// GetGrowthByEC handles GET /api/v1/growth/ec
func (h *DataHandler) GetGrowthByEC(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GrowthSummary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, summary, len(summary.Groups))
}

// GetGrowthView handles GET /api/v1/growth/distribution
func (h *DataHandler) GetGrowthView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GrowthView(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, view, view.Table.Len())
}

func (h *DataHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	h.logger.DebugContext(r.Context(), "api response",
		slog.String("path", r.URL.Path),
		slog.Int("count", count),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	render.JSON(w, r, api.NewResponse(data, count))
}
