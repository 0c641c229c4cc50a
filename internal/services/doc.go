// Package services contains the business services that sit between the
// HTTP transport and the core pipeline packages.
//
// AnalysisService owns run execution: it validates an AnalysisRequest,
// applies the configured simulation defaults, and drives the operations
// runner through generate, aggregate, export and archive. ResultsService
// provides read access to the latest analysis results and to archived
// runs. HealthService reports liveness, readiness and build information.
//
// Services receive their collaborators through constructors and log with
// the injected slog logger; none of them reach for globals.
package services
