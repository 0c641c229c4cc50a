package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicpulse/internal/infrastructure"
)

// RunnerOptions carries the optional collaborators of a Runner
type RunnerOptions struct {
	Config      *Config
	Broadcaster *StatusBroadcaster
	Metrics     *infrastructure.BusinessMetrics
	Logger      *slog.Logger
}

// Runner executes the run pipeline: a fixed, ordered sequence of steps
type Runner struct {
	steps       []Step
	config      *Config
	broadcaster *StatusBroadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger

	// Active runs
	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	state  *RunState
	cancel context.CancelFunc
}

// NewRunner creates a runner over the given steps, in execution order
func NewRunner(steps []Step, opts *RunnerOptions) (*Runner, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("at least one step is required")
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		id := step.ID()
		if id == "" {
			return nil, fmt.Errorf("step ID cannot be empty")
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate step ID %s", id)
		}
		seen[id] = true
	}

	if opts == nil {
		opts = &RunnerOptions{}
	}
	config := opts.Config
	if config == nil {
		config = NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	broadcaster := opts.Broadcaster
	if broadcaster == nil {
		broadcaster = NewStatusBroadcaster(nil, logger)
	}

	return &Runner{
		steps:       steps,
		config:      config,
		broadcaster: broadcaster,
		metrics:     opts.Metrics,
		logger:      logger,
		runs:        make(map[string]*activeRun),
	}, nil
}

// Broadcaster returns the status broadcaster shared with the steps
func (r *Runner) Broadcaster() *StatusBroadcaster {
	return r.broadcaster
}

// Config returns the current pipeline configuration
func (r *Runner) Config() *Config {
	return r.config
}

// Run executes the pipeline for the given request
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	state := NewRunState(req.ID)
	state.SetConfig(ContextKeySeed, req.Seed)
	state.SetConfig(ContextKeyWindowDays, req.WindowDays)
	state.SetConfig(ContextKeyReferenceDate, req.ReferenceDate)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.storeRun(state, cancel)
	defer r.removeRun(req.ID)

	for _, step := range r.steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}
	r.broadcaster.CreateRun(req.ID, r.steps)

	r.logRunStart(runCtx, req)
	state.Start()
	r.broadcaster.StartRun(req.ID)
	infrastructure.RecordActiveRunChange(ctx, r.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, r.metrics, -1)

	err := r.executeSequential(runCtx, state)

	switch {
	case err == nil:
		state.Complete()
		r.broadcaster.CompleteRun(req.ID, "Run completed")
		r.logRunComplete(ctx, req.ID, state.Duration())
		infrastructure.RecordRunMetrics(ctx, r.metrics, req.ID, state.Duration(), true, nil)
	case GetErrorType(err) == ErrorTypeCancellation || errors.Is(runCtx.Err(), context.Canceled):
		state.Cancel()
		r.broadcaster.CancelRun(req.ID)
		r.logRunError(ctx, req.ID, err)
		infrastructure.RecordRunCancellation(ctx, r.metrics, req.ID, "cancelled")
		infrastructure.RecordRunMetrics(ctx, r.metrics, req.ID, state.Duration(), false, err)
	default:
		state.Fail(err)
		r.broadcaster.FailRun(req.ID, err)
		r.logRunError(ctx, req.ID, err)
		infrastructure.RecordRunMetrics(ctx, r.metrics, req.ID, state.Duration(), false, err)
	}

	return r.createResponse(state), err
}

// executeSequential executes the steps one by one, stopping at the first
// failure and skipping whatever remains
func (r *Runner) executeSequential(ctx context.Context, state *RunState) error {
	for i, step := range r.steps {
		select {
		case <-ctx.Done():
			r.skipRemaining(state, i, "Run cancelled")
			return NewCancellationError(step.ID())
		default:
		}

		r.logStepStart(ctx, state.ID, step.ID())
		if err := r.executeStep(ctx, state, step); err != nil {
			r.logStepError(ctx, state.ID, step.ID(), err)
			r.skipRemaining(state, i+1, fmt.Sprintf("Step %s did not complete", step.ID()))
			return err
		}
	}
	return nil
}

// executeStep validates and executes a single step under its timeout
func (r *Runner) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return &StepError{Type: ErrorTypeInvalidState, Step: step.ID(), Message: "step state not found"}
	}

	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("Validation failed: %v", err))
		r.broadcaster.SkipStep(state.ID, step.ID(), stepState.Message)
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := r.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepState.Start()
	r.broadcaster.UpdateStepProgress(state.ID, step.ID(), 0, "Step started")

	startTime := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(startTime)
	infrastructure.RecordRunStepMetrics(ctx, r.metrics, state.ID, step.ID(), duration, err == nil)

	if err == nil {
		stepState.Complete()
		r.broadcaster.CompleteStep(state.ID, step.ID(), "Step completed")
		r.logStepComplete(ctx, state.ID, step.ID(), duration)
		return nil
	}

	// A cancelled parent context takes precedence over the step timeout
	if errors.Is(ctx.Err(), context.Canceled) {
		cancelErr := NewCancellationError(step.ID())
		stepState.Fail(cancelErr)
		r.broadcaster.FailStep(state.ID, step.ID(), cancelErr)
		return cancelErr
	}
	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		timeoutErr := NewTimeoutError(step.ID(), timeout.String())
		stepState.Fail(timeoutErr)
		r.broadcaster.FailStep(state.ID, step.ID(), timeoutErr)
		return timeoutErr
	}

	stepState.Fail(err)
	r.broadcaster.FailStep(state.ID, step.ID(), err)
	return WrapError(err, step.ID(), "step execution failed")
}

// skipRemaining marks every pending step from index on as skipped
func (r *Runner) skipRemaining(state *RunState, from int, reason string) {
	for _, step := range r.steps[from:] {
		stepState := state.GetStep(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
			r.broadcaster.SkipStep(state.ID, step.ID(), reason)
		}
	}
}

// createResponse creates a run response from state
func (r *Runner) createResponse(state *RunState) *RunResponse {
	resp := &RunResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// GetRun retrieves the state of an active run
func (r *Runner) GetRun(id string) (*RunState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}

	return run.state.Clone(), nil
}

// ListRuns returns all currently active runs
func (r *Runner) ListRuns() []*RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make([]*RunState, 0, len(r.runs))
	for _, run := range r.runs {
		states = append(states, run.state.Clone())
	}

	return states
}

// Cancel stops an active run. The run finishes with cancelled status once
// the current step observes the cancelled context.
func (r *Runner) Cancel(id string) error {
	r.mu.RLock()
	run, exists := r.runs[id]
	r.mu.RUnlock()

	if !exists {
		return ErrRunNotFound
	}

	switch run.state.GetStatus() {
	case RunStatusPending, RunStatusRunning:
		run.cancel()
		return nil
	}
	return ErrRunNotRunning
}

// storeRun registers an active run
func (r *Runner) storeRun(state *RunState, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[state.ID] = &activeRun{state: state, cancel: cancel}
}

// removeRun removes an active run
func (r *Runner) removeRun(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
}
