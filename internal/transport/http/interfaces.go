package http

import (
	"context"

	"civicpulse/internal/analytics"
	"civicpulse/internal/archive"
	"civicpulse/internal/operations"
	"civicpulse/internal/services"
)

// AnalysisService is the surface the analysis handler needs from the
// services layer. Kept narrow so handler tests can stub it.
type AnalysisService interface {
	Run(ctx context.Context, req services.AnalysisRequest) (*operations.RunResponse, error)
	Start(ctx context.Context, req services.AnalysisRequest) (*services.RunSummary, error)
	RunStatus(id string) (*operations.RunState, error)
	ActiveRuns() []*operations.RunState
	Cancel(id string) error
}

// ResultsReader exposes read access to the latest analysis results and
// the run archive.
type ResultsReader interface {
	Latest(ctx context.Context) (*services.LatestResults, error)
	CountryStatistics(ctx context.Context) ([]analytics.CountryStatistics, error)
	Correlations(ctx context.Context) (*services.CorrelationReport, error)
	MonthlyTrends(ctx context.Context) ([]analytics.MonthlyAggregate, error)
	ClassificationStatistics(ctx context.Context) ([]analytics.ClassificationStatistics, error)
	Methodology(ctx context.Context) (*analytics.Methodology, error)
	ArchivedRuns(ctx context.Context, limit int) ([]archive.Run, error)
	ArchivedRun(ctx context.Context, id string) (*archive.Run, error)
}

// HealthService reports component health for the health endpoints.
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
