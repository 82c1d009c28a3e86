package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"

	"ecdash/internal/charts"
	"ecdash/internal/config"
	"ecdash/internal/dataprocessing"
	apierrors "ecdash/internal/errors"
	"ecdash/internal/files"
	"ecdash/internal/infrastructure"
	ecmw "ecdash/internal/middleware"
	"ecdash/internal/services"
	handlers "ecdash/internal/transport/http"
	"ecdash/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Loader  *dataprocessing.Loader
	Cache   *services.DatasetCache
	Data    *services.DataService
	Health  *services.HealthService
	Charts  *charts.Renderer
	Errors  *apierrors.ErrorHandler
	Queries *ecmw.QueryValidator
}

// NewApplication wires every component from cfg. logger may be nil, in which
// case the process-wide logger is used.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("data_dir", cfg.DataDir()))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
	}

	if providers.Meter != nil {
		app.Metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()
	return app, nil
}

// initializeServices builds the data pipeline from the file resolver up.
func (a *Application) initializeServices() {
	a.Services = NewServiceContainer(a.Config, a.Logger, a.Metrics)
	a.Services.Errors = apierrors.NewErrorHandler(a.Logger, a.isDevelopmentMode())
}

// NewServiceContainer wires the services that need no HTTP server. The CLI
// uses it directly for one-shot exports. metrics may be nil.
func NewServiceContainer(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ServiceContainer {
	discovery := files.NewDiscovery(cfg.DataDir(), logger)
	loader := dataprocessing.NewLoader(discovery, logger)
	cache := services.NewDatasetCache(loader, logger, metrics)
	data := services.NewDataService(cache, logger, metrics)

	return &ServiceContainer{
		Loader:  loader,
		Cache:   cache,
		Data:    data,
		Health:  services.NewHealthService(contracts.Version, cfg.DataDir(), data, logger),
		Charts:  charts.NewRenderer(charts.Options{Width: cfg.Charts.Width, Height: cfg.Charts.Height}),
		Errors:  apierrors.NewErrorHandler(logger, false),
		Queries: ecmw.NewQueryValidator(logger),
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	errorHandler := a.Services.Errors
	r := chi.NewRouter()

	r.Use(ecmw.RequestID)
	r.Use(ecmw.RealIP)
	r.Use(ecmw.NewOTelMiddleware(a.OTelProviders, a.Metrics, a.Logger).Handler)
	r.Use(ecmw.StructuredLogger(a.Logger))
	r.Use(ecmw.Recoverer(errorHandler))
	r.Use(ecmw.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(ecmw.CORS(ecmw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Debug:          a.Config.Logging.Level == "debug",
			Logger:         a.Logger,
		}))
	}
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(ecmw.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	dashboard, err := handlers.NewDashboardHandler(a.Services.Data, a.Services.Queries, a.Logger, errorHandler)
	if err != nil {
		return err
	}

	r.Get("/", handlers.RedirectToDashboard)

	r.Group(func(r chi.Router) {
		r.Use(ecmw.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(ecmw.Compress(5, "text/html", "application/json", "image/svg+xml"))

		r.Mount("/dashboard", dashboard.Routes())
		r.Mount("/charts", handlers.NewChartHandler(a.Services.Data, a.Services.Charts, a.Metrics, a.Logger, errorHandler).Routes())
		r.Mount("/export", handlers.NewExportHandler(a.Services.Data, a.Logger, errorHandler).Routes())
		r.Mount("/api/v1", handlers.NewDataHandler(a.Services.Data, a.Services.Queries, a.Logger, errorHandler).Routes())
	})

	r.Mount("/api/health", handlers.NewHealthHandler(a.Services.Health, a.Logger).Routes())
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	a.Router = r
	return nil
}

// isDevelopmentMode enables stack traces in problem responses.
func (a *Application) isDevelopmentMode() bool {
	return a.Config.Telemetry.Environment == "development" && a.Config.Logging.Level == "debug"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start binds the listener and serves in the background. It returns once the
// address is bound; serve errors are reported by Wait.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	go func() {
		err := a.Server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveErr <- err
		close(a.serveErr)
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://%s", ln.Addr())),
		slog.String("data_dir", a.Config.DataDir()))

	a.warmCache(ctx)
	return nil
}

// warmCache loads the dataset once so the first page view is fast. A failure
// is only logged: the dashboard reports it per request.
func (a *Application) warmCache(ctx context.Context) {
	if _, err := a.Services.Data.Dataset(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset not available at startup",
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Dataset loaded at startup")
}

// Addr returns the bound address, or the configured one before Start.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Wait blocks until the server stops serving.
func (a *Application) Wait() error {
	a.mu.Lock()
	ch := a.serveErr
	a.mu.Unlock()
	if ch == nil {
		return nil
	}
	return <-ch
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := a.Wait(); err != nil {
		a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the server
// fails, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	serveErr := a.serveErr
	a.mu.Unlock()

	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	return a.Stop(context.WithoutCancel(ctx))
}
