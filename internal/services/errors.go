package services

import (
	"errors"

	"ecdash/internal/analytics"
)

// Service errors
var (
	// ErrUnknownSite is returned for a site filter that names no site.
	ErrUnknownSite = analytics.ErrUnknownSite

	// ErrNoGrowthData means no growth record carries a target EC, so there is
	// no optimal EC to report.
	ErrNoGrowthData = errors.New("no growth records with a target EC")
)
