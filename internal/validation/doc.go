// Package validation checks the data directory before the loaders run and
// the output directory before exports are written.
package validation
