package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "civicpulse/internal/errors"
	"civicpulse/internal/middleware"
)

// ResultsHandler serves the latest analysis results.
type ResultsHandler struct {
	results ResultsReader
	errors  *apperrors.ErrorHandler
	logger  *slog.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(results ResultsReader, logger *slog.Logger) *ResultsHandler {
	if results == nil {
		panic("results cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ResultsHandler{
		results: results,
		errors:  apperrors.NewErrorHandler(logger, false),
		logger:  logger.With(slog.String("handler", "results")),
	}
}

// Routes returns a chi router for results endpoints.
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Latest)
	r.Get("/countries", h.CountryStatistics)
	r.Get("/correlations", h.Correlations)
	r.Get("/monthly", h.MonthlyTrends)
	r.Get("/classifications", h.ClassificationStatistics)
	r.Get("/methodology", h.Methodology)

	return r
}

// Latest handles GET /api/results.
func (h *ResultsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.latest", func(ctx context.Context) (interface{}, error) {
		return h.results.Latest(ctx)
	})
}

// CountryStatistics handles GET /api/results/countries.
func (h *ResultsHandler) CountryStatistics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.countries", func(ctx context.Context) (interface{}, error) {
		return h.results.CountryStatistics(ctx)
	})
}

// Correlations handles GET /api/results/correlations.
func (h *ResultsHandler) Correlations(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.correlations", func(ctx context.Context) (interface{}, error) {
		return h.results.Correlations(ctx)
	})
}

// MonthlyTrends handles GET /api/results/monthly.
func (h *ResultsHandler) MonthlyTrends(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.monthly", func(ctx context.Context) (interface{}, error) {
		return h.results.MonthlyTrends(ctx)
	})
}

// ClassificationStatistics handles GET /api/results/classifications.
func (h *ResultsHandler) ClassificationStatistics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.classifications", func(ctx context.Context) (interface{}, error) {
		return h.results.ClassificationStatistics(ctx)
	})
}

// Methodology handles GET /api/results/methodology.
func (h *ResultsHandler) Methodology(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "results_handler.methodology", func(ctx context.Context) (interface{}, error) {
		return h.results.Methodology(ctx)
	})
}

// serve runs a results lookup inside a span and renders the outcome.
// A missing-results lookup renders as a 404 problem via the error handler.
func (h *ResultsHandler) serve(w http.ResponseWriter, r *http.Request, spanName string, fetch func(ctx context.Context) (interface{}, error)) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("results-handler")

	ctx, span := tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	payload, err := fetch(ctx)
	if err != nil {
		span.RecordError(err)
		if !apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			span.SetStatus(codes.Error, "results lookup failed")
		}
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "results served",
		slog.String("endpoint", r.URL.Path),
		slog.String("request_id", reqID))

	render.JSON(w, r, payload)
}
