package http

import (
	"net/http"

	apierrors "ecdash/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint. When metrics are
// disabled the endpoint answers 404.
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the exporter's handler, which may be nil.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
