package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "civicpulse/internal/errors"
	"civicpulse/internal/infrastructure"
	"civicpulse/internal/middleware"
	"civicpulse/internal/operations"
	"civicpulse/internal/services"
)

// AnalysisHandler handles analysis run HTTP requests.
type AnalysisHandler struct {
	service    AnalysisService
	results    ResultsReader
	errors     *apperrors.ErrorHandler
	validation *middleware.ValidationMiddleware
	query      *middleware.QueryParamValidator
	logger     *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service AnalysisService, results ResultsReader, logger *slog.Logger) *AnalysisHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if results == nil {
		panic("results cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := apperrors.NewErrorHandler(logger, false)

	return &AnalysisHandler{
		service:    service,
		results:    results,
		errors:     errorHandler,
		validation: middleware.NewValidationMiddleware(logger, errorHandler),
		query:      middleware.NewQueryParamValidator(logger, errorHandler),
		logger:     logger.With(slog.String("handler", "analysis")),
	}
}

// AnalysisStartRequest is the request body for starting an analysis run.
// All fields are optional; omitted values fall back to the configured
// simulation defaults.
type AnalysisStartRequest struct {
	Seed          *int64 `json:"seed,omitempty"`
	WindowDays    int    `json:"window_days,omitempty"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

// Bind implements render.Binder for request validation. Range checks
// against the configured limits happen in the service; this only rejects
// values that can never be valid.
func (req *AnalysisStartRequest) Bind(r *http.Request) error {
	if req.WindowDays < 0 {
		return errors.New("window_days must be positive")
	}
	if req.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", req.ReferenceDate); err != nil {
			return errors.New("reference_date must be formatted as YYYY-MM-DD")
		}
	}
	return nil
}

// Routes returns a chi router for analysis endpoints.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(60*time.Second, h.logger))
	r.Use(h.validation.ValidateRequest)

	r.Post("/", h.StartAnalysis)
	r.Get("/runs", h.ListRuns)
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Use(h.validation.ValidateRunIDParam("id"))
		r.Get("/", h.GetRun)
		r.Post("/cancel", h.CancelRun)
	})

	return r
}

// StartAnalysis handles POST /api/analysis.
//
// By default the run executes in the background and a 202 with a poll
// URL is returned. With ?wait=true the request blocks until the run
// finishes and the full run response is returned.
func (h *AnalysisHandler) StartAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("analysis-handler")

	ctx, span := tracer.Start(ctx, "analysis_handler.start",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/analysis"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	data := &AnalysisStartRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.WarnContext(ctx, "invalid analysis request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apperrors.NewProblemDetails(
			http.StatusBadRequest,
			apperrors.TypeValidation,
			"Validation Failed",
			err.Error(),
			r.URL.Path,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

		render.Render(w, r, problem)
		return
	}

	req := services.AnalysisRequest{
		Seed:          data.Seed,
		WindowDays:    data.WindowDays,
		ReferenceDate: data.ReferenceDate,
	}

	if r.URL.Query().Get("wait") == "true" {
		h.runSynchronously(w, r, span, req)
		return
	}

	summary, err := h.service.Start(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis start failed")
		h.errors.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("run.id", summary.ID),
		attribute.Int64("run.seed", summary.Seed),
		attribute.Int("run.window_days", summary.WindowDays),
	)

	h.logger.InfoContext(ctx, "analysis run accepted",
		slog.String("run_id", summary.ID),
		slog.Int64("seed", summary.Seed),
		slog.Int("window_days", summary.WindowDays),
		slog.String("request_id", reqID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"run":      summary,
		"poll_url": "/api/analysis/runs/" + summary.ID,
	})
}

func (h *AnalysisHandler) runSynchronously(w http.ResponseWriter, r *http.Request, span trace.Span, req services.AnalysisRequest) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	span.SetAttributes(attribute.Bool("run.synchronous", true))

	resp, err := h.service.Run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis run failed")
		h.errors.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("run.id", resp.ID),
		attribute.String("run.status", string(resp.Status)),
		attribute.Float64("run.duration_ms", float64(resp.Duration.Milliseconds())),
	)

	h.logger.InfoContext(ctx, "analysis run completed synchronously",
		slog.String("run_id", resp.ID),
		slog.String("status", string(resp.Status)),
		slog.Duration("duration", resp.Duration),
		slog.String("request_id", reqID))

	render.JSON(w, r, resp)
}

// ListRuns handles GET /api/analysis/runs. Active runs come from the
// in-memory runner, completed ones from the archive.
func (h *AnalysisHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("analysis-handler")

	ctx, span := tracer.Start(ctx, "analysis_handler.list_runs",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/analysis/runs"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	limit, ok := h.query.ValidateInt(w, r, "limit", 1, 1000, 0)
	if !ok {
		return
	}
	if limit > 0 {
		span.SetAttributes(attribute.Int("filter.limit", limit))
	}

	archived, err := h.results.ArchivedRuns(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive listing failed")
		h.errors.HandleError(w, r, err)
		return
	}

	active := h.service.ActiveRuns()

	span.SetAttributes(
		attribute.Int("runs.active", len(active)),
		attribute.Int("runs.archived", len(archived)),
	)

	h.logger.DebugContext(ctx, "listed analysis runs",
		slog.Int("active", len(active)),
		slog.Int("archived", len(archived)),
		slog.String("request_id", reqID))

	render.JSON(w, r, map[string]interface{}{
		"active":   active,
		"archived": archived,
		"count":    len(active) + len(archived),
	})
}

// GetRun handles GET /api/analysis/runs/{id}. In-flight runs resolve to
// their live state; finished runs fall back to the archived record.
func (h *AnalysisHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("analysis-handler")

	ctx, span := tracer.Start(ctx, "analysis_handler.get_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/analysis/runs/{id}"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	state, err := h.service.RunStatus(runID)
	if err == nil {
		span.SetAttributes(attribute.String("run.status", string(state.Status)))
		render.JSON(w, r, state)
		return
	}
	if operations.GetErrorType(err) != operations.ErrorTypeNotFound {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run status retrieval failed")
		h.errors.HandleError(w, r, err)
		return
	}

	run, err := h.results.ArchivedRun(ctx, runID)
	if err != nil {
		span.RecordError(err)
		h.errors.HandleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.Bool("run.archived", true))
	render.JSON(w, r, run)
}

// CancelRun handles POST /api/analysis/runs/{id}/cancel.
func (h *AnalysisHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("analysis-handler")

	ctx, span := tracer.Start(ctx, "analysis_handler.cancel_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/analysis/runs/{id}/cancel"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "run cancel request",
		slog.String("run_id", runID),
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	if err := h.service.Cancel(runID); err != nil {
		span.RecordError(err)

		switch operations.GetErrorType(err) {
		case operations.ErrorTypeNotFound:
			problem := apperrors.NewProblemDetails(
				http.StatusNotFound,
				apperrors.TypeRunNotFound,
				"Run Not Found",
				"No active run with the given id",
				r.URL.Path,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("run_id", runID)

			render.Render(w, r, problem)

		case operations.ErrorTypeInvalidState:
			problem := apperrors.NewProblemDetails(
				http.StatusConflict,
				apperrors.TypeConflict,
				"Invalid Run State",
				"Run has already finished and cannot be cancelled",
				r.URL.Path,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("run_id", runID)

			render.Render(w, r, problem)

		default:
			span.SetStatus(codes.Error, "run cancellation failed")
			h.errors.HandleError(w, r, err)
		}
		return
	}

	h.logger.InfoContext(ctx, "run cancelled",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	render.JSON(w, r, map[string]string{
		"message": "Run cancelled",
		"run_id":  runID,
	})
}
