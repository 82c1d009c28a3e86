// Package app wires the EC dashboard together and manages its lifecycle.
//
// NewApplication builds the data pipeline (file discovery, loaders, the
// dataset cache and the data service), the chart renderer, OpenTelemetry
// providers and the chi router with its middleware chain. Start binds the
// listener and warms the dataset cache; Stop drains the HTTP server and
// flushes telemetry.
//
// # Routes
//
//	/                   redirect to /dashboard
//	/dashboard          HTML tabs (overview, environment, growth)
//	/charts/...         SVG charts referenced by the dashboard
//	/export/...         CSV and XLSX downloads
//	/api/v1/...         JSON aggregates
//	/api/health         health, liveness and readiness
//	/metrics            Prometheus exposition
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
