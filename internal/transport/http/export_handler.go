package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "ecdash/internal/errors"
	"ecdash/internal/exporter"
	"ecdash/internal/infrastructure"
)

// ExportHandler serves the full-data downloads. Both ignore any site filter.
type ExportHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates an export handler
func NewExportHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "export_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/environment.csv", h.Environment)
	r.Get("/growth.xlsx", h.Growth)
	return r
}

// Environment handles GET /export/environment.csv
func (h *ExportHandler) Environment(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, exporter.EnvironmentFileName, "environment.csv", exporter.CSVContentType, h.service.ExportEnvironment)
}

// Growth handles GET /export/growth.xlsx
func (h *ExportHandler) Growth(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, exporter.GrowthFileName, "growth.xlsx", exporter.XLSXContentType, h.service.ExportGrowth)
}

func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, name, fallback, contentType string, export func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := export(r.Context(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "serving download",
		slog.String("file", name),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", contentDisposition(name, fallback))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// contentDisposition names the attachment with an ASCII fallback and the
// RFC 5987 UTF-8 form for the Korean file name.
func contentDisposition(name, fallback string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name))
}
