package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ecdash/internal/infrastructure"
	"ecdash/pkg/contracts/domain"
)

// DatasetLoader reads the data directory.
type DatasetLoader interface {
	Fingerprint() (string, error)
	Load(ctx context.Context) (*domain.Dataset, error)
}

// DatasetCache memoizes the dataset of the current data-directory fingerprint.
// A changed directory yields a new fingerprint, a fresh load, and replaces the
// previous dataset. Failed loads are not cached.
type DatasetCache struct {
	loader  DatasetLoader
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	mu      sync.RWMutex
	key     string
	current *domain.Dataset
	group   singleflight.Group
}

// NewDatasetCache creates an empty cache in front of loader. metrics may be nil.
func NewDatasetCache(loader DatasetLoader, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DatasetCache {
	return &DatasetCache{
		loader:  loader,
		logger:  infrastructure.WithComponent(logger, "dataset_cache"),
		metrics: metrics,
	}
}

// Get returns the dataset for the current directory contents, loading it at
// most once per fingerprint even under concurrent callers.
func (c *DatasetCache) Get(ctx context.Context) (*domain.Dataset, error) {
	key, err := c.loader.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint data directory: %w", err)
	}

	ds, ok := c.lookup(key)
	infrastructure.RecordCacheLookup(ctx, c.metrics, ok)
	if ok {
		return ds, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.lookup(key); ok {
			return cached, nil
		}

		// The load is shared, so one caller going away must not fail the others.
		start := time.Now()
		loaded, err := c.loader.Load(context.WithoutCancel(ctx))
		infrastructure.RecordDatasetLoad(ctx, c.metrics, time.Since(start), err)
		if err != nil {
			return nil, err
		}

		c.store(key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "dataset resolved",
		slog.String("fingerprint", key),
		slog.Bool("shared", shared))
	return v.(*domain.Dataset), nil
}

func (c *DatasetCache) lookup(key string) (*domain.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || c.key != key {
		return nil, false
	}
	return c.current, true
}

// store replaces the cached dataset. A load that finishes after a newer one
// for a different fingerprint still wins; the next Get reloads if stale.
func (c *DatasetCache) store(key string, ds *domain.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.key != key {
		c.logger.Info("data directory changed, replacing cached dataset",
			slog.String("previous", c.key),
			slog.String("fingerprint", key))
	}
	c.key, c.current = key, ds
}

// Len reports the number of cached datasets, zero or one.
func (c *DatasetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return 0
	}
	return 1
}
