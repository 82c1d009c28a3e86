// Package services sits between the HTTP handlers and the data directory.
//
// DatasetCache loads the experiment files at most once per directory
// fingerprint. DataService turns the cached dataset into the views and
// downloads of the dashboard. HealthService answers liveness and readiness
// probes.
//
// Load failures pass through unchanged so that handlers can tell a missing
// file (dataprocessing.ErrMissingInput) from a malformed one
// (dataprocessing.ErrMalformedData).
package services
