package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"ecdash/internal/infrastructure"
)

// Readiness states reported by ReadinessCheck.
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataDir   string
	data      *DataService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. data may be nil, in which case
// readiness only checks the data directory.
func NewHealthService(version, dataDir string, data *DataService, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   version,
		dataDir:   dataDir,
		data:      data,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports StatusReady only when the data directory exists and the
// dataset loads.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	dir := hs.checkDataDir()
	status.Services["data_dir"] = dir
	if dir.Status == StatusReady {
		status.Services["dataset"] = hs.checkDataset(ctx)
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	info, err := os.Stat(hs.dataDir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("data directory unavailable: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s is not a directory", hs.dataDir)}
	}
	return ServiceHealth{Status: StatusReady, Message: hs.dataDir}
}

func (hs *HealthService) checkDataset(ctx context.Context) ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{Status: StatusReady}
	}
	ds, err := hs.data.Dataset(ctx)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d environment rows, %d growth rows", len(ds.Readings()), len(ds.GrowthRecords())),
	}
}
