// Package config provides centralized configuration management for the
// CivicPulse system. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. Configuration files (YAML)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CIVICPULSE_* for namespacing:
//
//	CIVICPULSE_SERVER_PORT=8080
//	CIVICPULSE_LOGGING_LEVEL=info
//	CIVICPULSE_SIMULATION_DEFAULT_SEED=42
//	CIVICPULSE_SIMULATION_DEFAULT_WINDOW_DAYS=365
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	exportPath := paths.GetExportPath("observations_abc123.csv")
//	reportPath := paths.GetReportPath("analysis_abc123.md")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//   - Required fields are present
//   - Values are within acceptable ranges
//   - File paths are accessible
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
