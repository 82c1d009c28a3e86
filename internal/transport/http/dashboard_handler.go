package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"ecdash/internal/analytics"
	"ecdash/internal/config"
	"ecdash/internal/dataprocessing"
	apierrors "ecdash/internal/errors"
	"ecdash/internal/infrastructure"
	ecmw "ecdash/internal/middleware"
	"ecdash/internal/services"
	"ecdash/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"num": formatNumber,
	"ec":  formatEC,
}

// DashboardHandler renders the three dashboard tabs as one HTML page. Charts
// are referenced as <img> URLs and rendered by ChartHandler.
type DashboardHandler struct {
	service      DataServiceInterface
	validator    *ecmw.QueryValidator
	templates    *template.Template
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler parses the embedded templates.
func NewDashboardHandler(service DataServiceInterface, validator *ecmw.QueryValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*DashboardHandler, error) {
	tmpl, err := template.New("dashboard").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		templates:    tmpl,
		logger:       infrastructure.WithComponent(logger, "dashboard_handler"),
		errorHandler: errorHandler,
	}, nil
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Dashboard)
	return r
}

// RedirectToDashboard handles GET /
func RedirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

type tabLink struct {
	ID     string
	Label  string
	URL    string
	Active bool
}

type siteOption struct {
	Value    string
	Label    string
	Selected bool
}

type chartImage struct {
	Site string
	URL  string
}

type pageError struct {
	Status  int
	Title   string
	Message string
	Detail  string
}

type dashboardPage struct {
	Title string
	Tab   string
	Site  string
	Tabs  []tabLink
	Sites []siteOption

	Overview    *analytics.OverviewSummary
	Environment *services.EnvironmentView
	Growth      *services.GrowthView

	TimeSeriesCharts []chartImage
	Error            *pageError
}

// Dashboard handles GET /dashboard?tab=&site=
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.validator.ParseDashboardQuery(r)
	if err != nil {
		page := newPage(ecmw.TabOverview, domain.AllSites)
		h.renderError(w, r, page, err)
		return
	}

	page := newPage(q.Tab, q.Site)
	switch q.Tab {
	case ecmw.TabEnvironment:
		view, err := h.service.EnvironmentView(r.Context(), q.Site)
		if err != nil {
			h.renderError(w, r, page, err)
			return
		}
		page.Environment = view
		page.Site = view.Filter
		for _, s := range view.Series {
			page.TimeSeriesCharts = append(page.TimeSeriesCharts, chartImage{
				Site: s.Site,
				URL:  "/charts/environment/timeseries/" + url.PathEscape(s.Site) + ".svg",
			})
		}
	case ecmw.TabGrowth:
		view, err := h.service.GrowthView(r.Context())
		if err != nil {
			h.renderError(w, r, page, err)
			return
		}
		page.Growth = view
	default:
		overview, err := h.service.Overview(r.Context())
		if err != nil {
			h.renderError(w, r, page, err)
			return
		}
		page.Overview = overview
	}

	h.render(w, r, http.StatusOK, page)
}

func newPage(tab, site string) *dashboardPage {
	if analytics.IsAllSites(site) {
		site = domain.AllSites
	}
	page := &dashboardPage{
		Title: config.AppTitle,
		Tab:   tab,
		Site:  site,
	}

	for _, t := range []struct{ id, label string }{
		{ecmw.TabOverview, "📖 실험 개요"},
		{ecmw.TabEnvironment, "🌡️ 환경 데이터"},
		{ecmw.TabGrowth, "📊 생육 결과"},
	} {
		page.Tabs = append(page.Tabs, tabLink{
			ID:     t.id,
			Label:  t.label,
			URL:    dashboardURL(t.id, site),
			Active: t.id == tab,
		})
	}

	page.Sites = append(page.Sites, siteOption{
		Value:    domain.AllSites,
		Label:    domain.AllSitesLabel,
		Selected: site == domain.AllSites,
	})
	for _, name := range domain.SiteNames() {
		page.Sites = append(page.Sites, siteOption{Value: name, Label: name, Selected: site == name})
	}
	return page
}

func dashboardURL(tab, site string) string {
	v := url.Values{}
	v.Set("tab", tab)
	if site != "" && site != domain.AllSites {
		v.Set("site", site)
	}
	return "/dashboard?" + v.Encode()
}

// renderError shows the failure inside the page shell. Nothing else on the
// page is rendered, so no chart is requested.
func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, page *dashboardPage, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "dashboard unavailable",
		slog.String("tab", page.Tab),
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))

	page.Error = &pageError{
		Status:  problem.Status,
		Title:   problem.Title,
		Message: loadFailureMessage(err),
		Detail:  problem.Detail,
	}
	h.render(w, r, problem.Status, page)
}

// loadFailureMessage is the user-facing Korean explanation of a failure.
func loadFailureMessage(err error) string {
	var fileErr *dataprocessing.MissingFileError
	var sheetErr *dataprocessing.MissingSheetError
	var malformed *dataprocessing.MalformedDataError
	var apiErr *apierrors.APIError

	switch {
	case errors.As(err, &fileErr):
		if strings.HasSuffix(strings.ToLower(fileErr.Name), ".xlsx") {
			return "생육 결과 XLSX 파일을 찾을 수 없습니다."
		}
		return "환경 데이터 파일을 찾을 수 없습니다: " + fileErr.Name
	case errors.As(err, &sheetErr):
		return fmt.Sprintf("생육 결과 파일 %s에 %s 시트가 없습니다.", sheetErr.Workbook, sheetErr.Sheet)
	case errors.As(err, &malformed):
		return "데이터 형식 오류: " + malformed.Error()
	case errors.Is(err, analytics.ErrUnknownSite), errors.As(err, &apiErr):
		return "잘못된 요청입니다. 탭 또는 학교 선택을 확인하세요."
	default:
		return "데이터를 불러오는 중 오류가 발생했습니다."
	}
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, page *dashboardPage) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "dashboard.html", page); err != nil {
		h.logger.ErrorContext(r.Context(), "template execution failed", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formatNumber prints v with the given number of decimals, or "-" when the
// value is missing.
func formatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

// formatEC prints an EC level without trailing zeros; nil prints "-".
func formatEC(v interface{}) string {
	switch ec := v.(type) {
	case *float64:
		if ec == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *ec)
	case float64:
		return fmt.Sprintf("%g", ec)
	default:
		return "-"
	}
}
