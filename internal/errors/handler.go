package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ecdash/internal/analytics"
	"ecdash/internal/dataprocessing"
	"ecdash/internal/services"
)

// Common error types following RFC 7807
const (
	TypeValidation   = "/errors/validation"
	TypeNotFound     = "/errors/not-found"
	TypeMethod       = "/errors/method-not-allowed"
	TypeRateLimit    = "/errors/rate-limit"
	TypeInternal     = "/errors/internal"
	TypeServiceDown  = "/errors/service-unavailable"
	TypeTimeout      = "/errors/timeout"
	TypeUnknownSite  = "/errors/site/unknown"
	TypeNoGrowthData = "/errors/growth/empty"
)

// Data-loading error types
const (
	TypeDataNotFound  = "/errors/data/not-found"
	TypeDataCorrupted = "/errors/data/corrupted"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var fileErr *dataprocessing.MissingFileError
	if errors.As(err, &fileErr) {
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeDataNotFound,
			"Data File Not Found",
			err.Error(),
			r.URL.Path,
		).WithExtension("file", fileErr.Name)
	}

	var sheetErr *dataprocessing.MissingSheetError
	if errors.As(err, &sheetErr) {
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeDataNotFound,
			"Data Sheet Not Found",
			err.Error(),
			r.URL.Path,
		).WithExtension("file", sheetErr.Workbook).WithExtension("sheet", sheetErr.Sheet)
	}

	var malformed *dataprocessing.MalformedDataError
	if errors.As(err, &malformed) {
		problem := NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeDataCorrupted,
			"Malformed Data",
			err.Error(),
			r.URL.Path,
		).WithExtension("file", malformed.File)
		if malformed.Column != "" {
			problem.WithExtension("column", malformed.Column)
		}
		if malformed.Row > 0 {
			problem.WithExtension("row", malformed.Row)
		}
		return problem
	}

	switch {
	case errors.Is(err, dataprocessing.ErrMissingInput):
		return NewProblemDetails(http.StatusServiceUnavailable, TypeDataNotFound,
			"Data File Not Found", err.Error(), r.URL.Path)
	case errors.Is(err, dataprocessing.ErrMalformedData):
		return NewProblemDetails(http.StatusServiceUnavailable, TypeDataCorrupted,
			"Malformed Data", err.Error(), r.URL.Path)
	case errors.Is(err, analytics.ErrUnknownSite):
		return NewProblemDetails(http.StatusBadRequest, TypeUnknownSite,
			"Unknown Site", err.Error(), r.URL.Path)
	case errors.Is(err, services.ErrNoGrowthData):
		return NewProblemDetails(http.StatusNotFound, TypeNoGrowthData,
			"No Growth Data", err.Error(), r.URL.Path)
	}

	internal := ErrInternalServer
	if h.includeStack {
		internal = New(ErrInternalServer.StatusCode, ErrInternalServer.ErrorCode, err.Error())
	}
	return h.apiErrorToProblem(internal, r)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_PARAMETER":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		if errs, ok := apiErr.Details.([]ValidationError); ok {
			problem.WithExtension("errors", errs)
		} else {
			problem.WithExtension("details", apiErr.Details)
		}
	}
	return problem
}

// HandlePanic logs a recovered panic and answers with a 500 problem.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethod,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
