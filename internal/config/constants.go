package config

import "time"

// Application constants - hardcoded values for the CivicPulse system
const (
	// Application Info
	AppName    = "CivicPulse"
	AppVersion = "1.0.0"

	// Simulation Defaults
	DefaultSeed       int64 = 42
	DefaultWindowDays       = 365
	MaxWindowDays           = 3650

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"
	ArchiveFileName   = "archive.db"

	// Operation Timeouts
	DefaultOperationTimeout = 10 * time.Minute
	GenerationTimeout       = 5 * time.Minute
	AggregationTimeout      = 5 * time.Minute
	ExportTimeout           = 5 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10
)

// Feature Flags - compile-time configuration
const (
	FeatureWebSocketEnabled    = true
	FeatureMetricsEnabled      = true
	FeatureHealthCheckEnabled  = true
	FeatureDebugLoggingEnabled = false
)

// API Endpoints (internal)
const (
	APIBasePath       = "/api/v1"
	AnalysisEndpoint  = "/api/v1/analysis"
	ResultsEndpoint   = "/api/v1/results"
	CountriesEndpoint = "/api/v1/countries"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	default:
		return false
	}
}
