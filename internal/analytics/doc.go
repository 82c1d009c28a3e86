// Package analytics computes the aggregates shown on the dashboard. Every
// function is a pure transformation of an already loaded domain.Dataset and is
// re-run on each render.
package analytics
