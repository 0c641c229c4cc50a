package operations

import (
	"log/slog"
	"sync"
	"time"
)

// EventSink receives run lifecycle events for delivery to clients. The
// WebSocket hub implements this.
type EventSink interface {
	Broadcast(event string, payload interface{})
}

// StatusBroadcaster is the single authority for run status updates. It
// maintains one snapshot per run and publishes the complete snapshot on
// every change.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	runs    map[string]*RunSnapshot
	sink    EventSink
	logger  *slog.Logger
	updates chan updateRequest
	stop    chan struct{}
}

// RunSnapshot represents the complete state of a run at a point in time.
// This is the only structure sent to clients.
type RunSnapshot struct {
	RunID       string         `json:"run_id"`
	Status      string         `json:"status"`       // pending|running|completed|failed|cancelled
	Progress    int            `json:"progress"`     // 0-100
	CurrentStep string         `json:"current_step"` // Currently active step name
	Steps       []StepSnapshot `json:"steps"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// StepSnapshot represents the state of a single step
type StepSnapshot struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`   // pending|running|completed|failed|skipped
	Progress int                    `json:"progress"` // 0-100
	Message  string                 `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type updateRequest struct {
	runID      string
	event      string
	updateFunc func(*RunSnapshot)
	done       chan struct{}
}

// NewStatusBroadcaster creates a new status broadcaster
func NewStatusBroadcaster(sink EventSink, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}

	sb := &StatusBroadcaster{
		runs:    make(map[string]*RunSnapshot),
		sink:    sink,
		logger:  logger,
		updates: make(chan updateRequest, 100),
		stop:    make(chan struct{}),
	}

	go sb.processUpdates()

	return sb
}

// processUpdates handles all updates sequentially to avoid race conditions
func (sb *StatusBroadcaster) processUpdates() {
	for {
		select {
		case <-sb.stop:
			return
		case req := <-sb.updates:
			sb.handleUpdate(req)
		}
	}
}

// handleUpdate processes a single update request
func (sb *StatusBroadcaster) handleUpdate(req updateRequest) {
	defer close(req.done)

	sb.mu.Lock()
	defer sb.mu.Unlock()

	snapshot, exists := sb.runs[req.runID]
	if !exists {
		snapshot = &RunSnapshot{
			RunID:     req.runID,
			Status:    "pending",
			StartedAt: time.Now(),
			UpdatedAt: time.Now(),
			Steps:     []StepSnapshot{},
		}
		sb.runs[req.runID] = snapshot
	}

	req.updateFunc(snapshot)
	snapshot.UpdatedAt = time.Now()

	// Overall progress is the mean of step progress
	if len(snapshot.Steps) > 0 {
		total := 0
		for _, step := range snapshot.Steps {
			total += step.Progress
		}
		snapshot.Progress = total / len(snapshot.Steps)
	}

	if isTerminalStatus(snapshot.Status) && snapshot.CompletedAt == nil {
		now := time.Now()
		snapshot.CompletedAt = &now
	}

	sb.publish(req.event, snapshot)
}

func isTerminalStatus(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// publish sends the complete snapshot to all connected clients
func (sb *StatusBroadcaster) publish(event string, snapshot *RunSnapshot) {
	if sb.sink == nil {
		return
	}

	sb.logger.Debug("Broadcasting run snapshot",
		slog.String("event", event),
		slog.String("run_id", snapshot.RunID),
		slog.String("status", snapshot.Status),
		slog.Int("progress", snapshot.Progress),
		slog.String("current_step", snapshot.CurrentStep))

	sb.sink.Broadcast(event, snapshot)
}

// updateStatus applies an update and waits until it has been processed
func (sb *StatusBroadcaster) updateStatus(runID, event string, updateFunc func(*RunSnapshot)) {
	req := updateRequest{
		runID:      runID,
		event:      event,
		updateFunc: updateFunc,
		done:       make(chan struct{}),
	}

	sb.updates <- req
	<-req.done
}

// CreateRun initializes a new run snapshot with the given steps
func (sb *StatusBroadcaster) CreateRun(runID string, steps []Step) {
	sb.updateStatus(runID, EventRunStatus, func(snapshot *RunSnapshot) {
		snapshot.Status = "pending"
		snapshot.Progress = 0
		snapshot.Steps = make([]StepSnapshot, len(steps))
		for i, step := range steps {
			snapshot.Steps[i] = StepSnapshot{
				ID:     step.ID(),
				Name:   step.Name(),
				Status: "pending",
			}
		}
		snapshot.Message = "Run created"
	})
}

// StartRun marks a run as running
func (sb *StatusBroadcaster) StartRun(runID string) {
	sb.updateStatus(runID, EventRunStatus, func(snapshot *RunSnapshot) {
		snapshot.Status = "running"
		snapshot.Message = "Run started"
	})
}

// UpdateStepProgress updates a specific step's progress
func (sb *StatusBroadcaster) UpdateStepProgress(runID, stepID string, progress int, message string) {
	sb.UpdateStepWithMetadata(runID, stepID, progress, message, nil)
}

// UpdateStepWithMetadata updates a specific step's progress with metadata
func (sb *StatusBroadcaster) UpdateStepWithMetadata(runID, stepID string, progress int, message string, metadata map[string]interface{}) {
	sb.updateStatus(runID, EventRunProgress, func(snapshot *RunSnapshot) {
		for i := range snapshot.Steps {
			if snapshot.Steps[i].ID != stepID {
				continue
			}
			snapshot.Steps[i].Progress = clampProgress(progress)
			snapshot.Steps[i].Message = message
			if metadata != nil {
				snapshot.Steps[i].Metadata = metadata
			}
			if progress >= 100 {
				snapshot.Steps[i].Status = "completed"
			} else {
				snapshot.Steps[i].Status = "running"
				snapshot.CurrentStep = snapshot.Steps[i].Name
			}
			break
		}
	})
}

func clampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// CompleteStep marks a step as completed
func (sb *StatusBroadcaster) CompleteStep(runID, stepID string, message string) {
	sb.updateStatus(runID, EventRunProgress, func(snapshot *RunSnapshot) {
		for i := range snapshot.Steps {
			if snapshot.Steps[i].ID == stepID {
				snapshot.Steps[i].Status = "completed"
				snapshot.Steps[i].Progress = 100
				snapshot.Steps[i].Message = message
				break
			}
		}
	})
}

// FailStep marks a step as failed
func (sb *StatusBroadcaster) FailStep(runID, stepID string, err error) {
	sb.updateStatus(runID, EventRunProgress, func(snapshot *RunSnapshot) {
		for i := range snapshot.Steps {
			if snapshot.Steps[i].ID == stepID {
				snapshot.Steps[i].Status = "failed"
				snapshot.Steps[i].Error = err.Error()
				break
			}
		}
	})
}

// SkipStep marks a step as skipped with the given reason
func (sb *StatusBroadcaster) SkipStep(runID, stepID, reason string) {
	sb.updateStatus(runID, EventRunProgress, func(snapshot *RunSnapshot) {
		for i := range snapshot.Steps {
			if snapshot.Steps[i].ID == stepID {
				snapshot.Steps[i].Status = "skipped"
				snapshot.Steps[i].Message = reason
				break
			}
		}
	})
}

// CompleteRun marks a run as completed
func (sb *StatusBroadcaster) CompleteRun(runID string, message string) {
	sb.updateStatus(runID, EventRunComplete, func(snapshot *RunSnapshot) {
		snapshot.Status = "completed"
		snapshot.Progress = 100
		snapshot.CurrentStep = ""
		snapshot.Message = message
		// Steps still pending or running are completed by implication
		for i := range snapshot.Steps {
			if snapshot.Steps[i].Status == "running" || snapshot.Steps[i].Status == "pending" {
				snapshot.Steps[i].Status = "completed"
				snapshot.Steps[i].Progress = 100
			}
		}
	})
}

// FailRun marks a run as failed
func (sb *StatusBroadcaster) FailRun(runID string, err error) {
	sb.updateStatus(runID, EventRunComplete, func(snapshot *RunSnapshot) {
		snapshot.Status = "failed"
		snapshot.Error = err.Error()
		snapshot.CurrentStep = ""
	})
}

// CancelRun marks a run as cancelled
func (sb *StatusBroadcaster) CancelRun(runID string) {
	sb.updateStatus(runID, EventRunComplete, func(snapshot *RunSnapshot) {
		snapshot.Status = "cancelled"
		snapshot.CurrentStep = ""
		snapshot.Message = "Run cancelled"
	})
}

// GetSnapshot returns the current snapshot for a run
func (sb *StatusBroadcaster) GetSnapshot(runID string) (*RunSnapshot, bool) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshot, exists := sb.runs[runID]
	if !exists {
		return nil, false
	}

	// Return a copy to prevent external modification
	snapCopy := *snapshot
	snapCopy.Steps = make([]StepSnapshot, len(snapshot.Steps))
	copy(snapCopy.Steps, snapshot.Steps)
	return &snapCopy, true
}

// GetAllSnapshots returns all current run snapshots
func (sb *StatusBroadcaster) GetAllSnapshots() []*RunSnapshot {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshots := make([]*RunSnapshot, 0, len(sb.runs))
	for _, snapshot := range sb.runs {
		snapCopy := *snapshot
		snapCopy.Steps = make([]StepSnapshot, len(snapshot.Steps))
		copy(snapCopy.Steps, snapshot.Steps)
		snapshots = append(snapshots, &snapCopy)
	}

	return snapshots
}

// CleanupOldRuns removes terminal runs older than maxAge
func (sb *StatusBroadcaster) CleanupOldRuns(maxAge time.Duration) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	now := time.Now()
	for id, snapshot := range sb.runs {
		if !isTerminalStatus(snapshot.Status) {
			continue
		}
		if snapshot.CompletedAt != nil && now.Sub(*snapshot.CompletedAt) > maxAge {
			delete(sb.runs, id)
			sb.logger.Debug("Cleaned up old run snapshot",
				slog.String("run_id", id),
				slog.String("status", snapshot.Status))
		}
	}
}

// Stop gracefully shuts down the broadcaster
func (sb *StatusBroadcaster) Stop() {
	close(sb.stop)
}
