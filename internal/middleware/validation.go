package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "ecdash/internal/errors"
	"ecdash/internal/infrastructure"
	"ecdash/pkg/contracts/domain"
)

// Dashboard tabs.
const (
	TabOverview    = "overview"
	TabEnvironment = "environment"
	TabGrowth      = "growth"
)

// DashboardQuery is the query string accepted by the dashboard and the API.
type DashboardQuery struct {
	Tab  string `json:"tab" validate:"omitempty,oneof=overview environment growth"`
	Site string `json:"site" validate:"omitempty,site"`
}

// QueryValidator validates query parameters with struct tags.
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a validator with the site tag registered.
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	v := validator.New()
	v.RegisterValidation("site", isSiteFilter)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    infrastructure.WithComponent(logger, "query_validator"),
	}
}

// ParseDashboardQuery reads tab and site from r. Missing values default to
// the overview tab and every site. Invalid values yield a 400 APIError.
func (v *QueryValidator) ParseDashboardQuery(r *http.Request) (DashboardQuery, error) {
	q := DashboardQuery{
		Tab:  strings.TrimSpace(r.URL.Query().Get("tab")),
		Site: strings.TrimSpace(r.URL.Query().Get("site")),
	}
	if err := v.ValidateStruct(q); err != nil {
		v.logger.DebugContext(r.Context(), "rejected query",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		return DashboardQuery{}, err
	}
	if q.Tab == "" {
		q.Tab = TabOverview
	}
	if q.Site == "" {
		q.Site = domain.AllSites
	}
	return q, nil
}

// ValidateStruct validates a struct and returns validation errors
func (v *QueryValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	case "site":
		return fmt.Sprintf("%s must be %q, %q or one of: %s", field,
			domain.AllSites, domain.AllSitesLabel, strings.Join(domain.SiteNames(), ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isSiteFilter accepts the all-sites keywords and every known site name.
func isSiteFilter(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == domain.AllSites || s == domain.AllSitesLabel {
		return true
	}
	_, ok := domain.LookupSite(s)
	return ok
}
