package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ecdash/internal/config"
	"ecdash/internal/infrastructure"
	"ecdash/internal/shared/testutil"
	"ecdash/pkg/contracts/domain"
)

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Data.Dir = dir
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, dir string) *Application {
	t.Helper()
	logger := infrastructure.NewJSONLogger(io.Discard, "error")
	application, err := NewApplication(testConfig(dir), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	_, err := NewApplication(nil, nil)
	require.Error(t, err)
}

func TestRouter_Dashboard(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)
	application := newTestApp(t, dir)

	t.Run("root redirects", func(t *testing.T) {
		rec := get(t, application.Router, "/")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("overview", func(t *testing.T) {
		rec := get(t, application.Router, "/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), config.AppTitle)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("single site renders one time series", func(t *testing.T) {
		rec := get(t, application.Router, "/dashboard?tab=environment&site="+url.QueryEscape("하늘고"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, strings.Count(rec.Body.String(), `class="chart timeseries"`))
	})

	t.Run("all sites render four time series", func(t *testing.T) {
		rec := get(t, application.Router, "/dashboard?tab=environment&site=all")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, strings.Count(rec.Body.String(), `class="chart timeseries"`))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := get(t, application.Router, "/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_ChartsExportsAndAPI(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)
	application := newTestApp(t, dir)

	rec := get(t, application.Router, "/charts/growth/ec.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "image/svg+xml")
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(t, application.Router, "/charts/environment/timeseries/"+url.PathEscape("송도고")+".svg")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application.Router, "/export/environment.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"))
	assert.Equal(t, 1+len(testutil.EnvironmentRows)*len(domain.SiteNames()), strings.Count(strings.TrimSpace(body), "\n")+1)

	rec = get(t, application.Router, "/export/growth.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = get(t, application.Router, "/api/v1/growth/ec")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Groups []struct {
				EC      float64 `json:"ec"`
				Optimal bool    `json:"optimal"`
			} `json:"groups"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "success", payload.Status)
	require.Len(t, payload.Data.Groups, 4)
	// fresh weight grows with the sheet index, so the last site wins
	assert.True(t, payload.Data.Groups[3].Optimal)

	rec = get(t, application.Router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests")
}

func TestRouter_MissingData(t *testing.T) {
	application := newTestApp(t, t.TempDir())

	for _, target := range []string{
		"/dashboard",
		"/dashboard?tab=environment",
		"/dashboard?tab=growth",
	} {
		rec := get(t, application.Router, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "<img", target)
		assert.Contains(t, rec.Body.String(), "환경 데이터 파일을 찾을 수 없습니다", target)
	}

	rec := get(t, application.Router, "/api/v1/overview")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/data/not-found")

	rec = get(t, application.Router, "/charts/growth/ec.svg")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, application.Router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, application.Router, "/api/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplication_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	testutil.WriteDataDir(t, dir)
	logger := infrastructure.NewJSONLogger(io.Discard, "error")
	application, err := NewApplication(testConfig(dir), logger)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, application.Start(ctx))
	assert.NotEqual(t, "127.0.0.1:0", application.Addr())

	client := &http.Client{}
	resp, err := client.Get("http://" + application.Addr() + "/api/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	require.NoError(t, application.Stop(ctx))
	assert.Equal(t, 1, application.Services.Cache.Len())
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger := infrastructure.NewJSONLogger(io.Discard, "error")
	application, err := NewApplication(testConfig(t.TempDir()), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		return application.Addr() != "127.0.0.1:0"
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
