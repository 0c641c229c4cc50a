package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"civicpulse/internal/archive"
	"civicpulse/internal/config"
	"civicpulse/internal/operations"
	ws "civicpulse/internal/websocket"
)

// HealthService reports liveness, readiness and build information
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	paths     *config.Paths
	store     *archive.Store
	runner    *operations.Runner
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response body
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth is the readiness of one internal collaborator
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service with the given collaborators.
// Any of them may be nil; the corresponding readiness check then reports
// not ready.
func NewHealthService(version, buildTime, buildID string, paths *config.Paths, store *archive.Store, runner *operations.Runner, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		paths:     paths,
		store:     store,
		runner:    runner,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns the overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck reports that the process is running
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

// ReadinessCheck verifies every collaborator the API depends on
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["archive"] = hs.checkArchive(ctx)
	status.Services["runner"] = hs.checkRunner()
	status.Services["websocket"] = hs.checkWebSocket()
	status.Services["paths"] = hs.checkPaths()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// Version returns version and build information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	return result
}

func (hs *HealthService) checkArchive(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "archive store not configured"}
	}
	if err := hs.store.Ping(ctx); err != nil {
		hs.logger.WarnContext(ctx, "Archive readiness check failed",
			slog.String("error", err.Error()))
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkRunner() ServiceHealth {
	if hs.runner == nil {
		return ServiceHealth{Status: "not_ready", Message: "run pipeline not configured"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "",
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not configured"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkPaths() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not resolved"}
	}
	if err := hs.paths.EnsureDirectories(); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	return ServiceHealth{Status: "ready"}
}
