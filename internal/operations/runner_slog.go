package operations

import (
	"context"
	"log/slog"
	"time"
)

// logRunStart logs the start of a run execution
func (r *Runner) logRunStart(ctx context.Context, req RunRequest) {
	r.logger.InfoContext(ctx, "run_start",
		slog.String("run_id", req.ID),
		slog.Int64("seed", req.Seed),
		slog.Int("window_days", req.WindowDays),
		slog.String("reference_date", req.ReferenceDate.Format("2006-01-02")))
}

// logRunComplete logs the completion of a run execution
func (r *Runner) logRunComplete(ctx context.Context, runID string, duration time.Duration) {
	r.logger.InfoContext(ctx, "run_complete",
		slog.String("run_id", runID),
		slog.Duration("duration", duration))
}

// logRunError logs a run error
func (r *Runner) logRunError(ctx context.Context, runID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	r.logger.ErrorContext(ctx, "run_error",
		slog.String("run_id", runID),
		slog.String("error", errorMsg))
}

// logStepStart logs the start of a step execution
func (r *Runner) logStepStart(ctx context.Context, runID, stepID string) {
	r.logger.InfoContext(ctx, "step_start",
		slog.String("run_id", runID),
		slog.String("step", stepID))
}

// logStepComplete logs the completion of a step execution
func (r *Runner) logStepComplete(ctx context.Context, runID, stepID string, duration time.Duration) {
	r.logger.InfoContext(ctx, "step_complete",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.Duration("duration", duration))
}

// logStepError logs a step error
func (r *Runner) logStepError(ctx context.Context, runID, stepID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	r.logger.ErrorContext(ctx, "step_error",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.String("error", errorMsg))
}
