// Package http holds the HTTP handlers of the dashboard: the server-rendered
// HTML tabs, the SVG chart endpoints, the CSV and XLSX downloads, the JSON
// API and the health probes.
//
// Handlers stay thin. They parse and validate the query, call the data
// service, and hand failures to the shared RFC 7807 error handler. Chart
// images are separate requests, so a dashboard page that fails to load its
// dataset never reaches the chart renderer.
//
//	GET /dashboard?tab=environment&site=하늘고
//	GET /charts/environment/timeseries/하늘고.svg
//	GET /export/environment.csv
//	GET /api/v1/growth/ec
package http
