// Package domain holds the reference data and record types shared by the loaders,
// the aggregation layer, the exporters and the HTTP transport.
package domain
