package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/execution"
	"ffmpeg-architect/internal/jobs"
	"ffmpeg-architect/internal/progress"
)

// Execute starts a run of the current configuration in the background.
func (a *App) Execute() (domain.Run, error) {
	cfg := a.Session.State()
	runID := uuid.NewString()
	if err := a.Jobs.Start(runID); err != nil {
		return a.Jobs.Current(), err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.activeRunID = runID
	a.cancel = cancel
	a.mu.Unlock()

	a.publishStatus(runID, domain.RunStatusRunning, "Run started")
	a.logger.Info("run started", "run_id", runID, "inputs", len(cfg.NonEmptyInputs()))

	go a.runExecution(ctx, runID, cfg)
	return a.Jobs.Current(), nil
}

// CancelExecution cancels the active run, if any.
func (a *App) CancelExecution() error {
	a.mu.Lock()
	cancel := a.cancel
	activeRunID := a.activeRunID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoActiveRun
	}

	if err := a.Jobs.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoActiveRun) {
		return err
	}
	cancel()

	// The run stays active until runExecution observes the stop and finishes it.
	if activeRunID != "" {
		a.publishEvent(jobs.Event{
			RunID:   activeRunID,
			Type:    jobs.EventTypeLog,
			Message: "Cancellation requested",
		})
	}
	return nil
}

// CurrentRun returns current run status and progress.
func (a *App) CurrentRun() domain.Run {
	return a.Jobs.Current()
}

// RunEvents returns all events with sequence greater than sinceSeq.
func (a *App) RunEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// GetHistory returns the newest run records.
func (a *App) GetHistory() ([]domain.RunRecord, error) {
	records, err := a.Store.ListRuns(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// runExecution drives the orchestrator and maps its outcome to run events.
func (a *App) runExecution(ctx context.Context, runID string, cfg domain.Configuration) {
	defer a.clearActiveRun(runID)

	outcome := a.Orchestrator.Run(ctx, runID, cfg, execution.Hooks{
		OnProgress: func(snapshot domain.ProgressSnapshot) {
			a.Jobs.UpdateProgress(runID, snapshot)
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeProgress,
				Progress: &snapshot,
			})
		},
		OnItemStart: func(item execution.Item) {
			a.publishEvent(jobs.Event{
				RunID:   runID,
				Type:    jobs.EventTypeLog,
				Message: "Command started",
				Command: item.Command,
				Args:    item.Args,
				Index:   item.Index,
				Total:   item.Total,
			})
		},
		OnItemDone: func(item execution.Item) {
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeLog,
				Message:  "Command completed",
				Command:  item.Command,
				Args:     item.Args,
				ExitCode: item.ExitCode,
				Stderr:   item.Stderr,
				Index:    item.Index,
				Total:    item.Total,
			})
		},
	})

	switch outcome.Status {
	case domain.RunStatusCancelled:
		_ = a.Jobs.Finish(runID, domain.RunStatusCancelled, "")
		a.publishStatus(runID, domain.RunStatusCancelled, "Run cancelled")
	case domain.RunStatusFailed:
		_ = a.Jobs.Finish(runID, domain.RunStatusFailed, outcome.Message())
		a.publishStatus(runID, domain.RunStatusFailed, "Run failed")
		a.publishEvent(jobs.Event{
			RunID:    runID,
			Type:     jobs.EventTypeError,
			Status:   domain.RunStatusFailed,
			Message:  progress.Message(outcome.Err.Category, cfg.Language),
			Stderr:   outcome.Message(),
			Category: string(outcome.Err.Category),
			Index:    outcome.Err.Index,
			Total:    outcome.Err.Total,
		})
	default:
		_ = a.Jobs.Finish(runID, domain.RunStatusSuccess, "")
		a.publishStatus(runID, domain.RunStatusSuccess, "Run completed")
		a.publishEvent(jobs.Event{
			RunID:    runID,
			Type:     jobs.EventTypeResult,
			Status:   domain.RunStatusSuccess,
			Message:  fmt.Sprintf("%d command(s) completed", len(outcome.Items)),
			Progress: &outcome.Progress,
		})
	}
	a.logger.Info("run finished", "run_id", runID, "status", outcome.Status)

	a.refreshHistory()
}

// refreshHistory pushes the persisted history view after every run.
func (a *App) refreshHistory() {
	records, err := a.GetHistory()
	if err != nil {
		a.logger.Warn("refresh history", "error", err)
		return
	}
	a.emit(EventHistory, records)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(runID string, status domain.RunStatus, message string) {
	a.publishEvent(jobs.Event{
		RunID:   runID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// clearActiveRun clears cancellation handles for completed run IDs.
func (a *App) clearActiveRun(runID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeRunID == runID {
		a.activeRunID = ""
		if a.cancel != nil {
			a.cancel()
		}
		a.cancel = nil
	}
}
