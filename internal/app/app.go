// Package app wires the persistence core together: configuration, logging,
// the store (which migrates on open), the timeline normalizer, the
// recurrence generator, and the change-event hub. Presentation layers build
// on top of an App and subscribe to its hub for re-read signals.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/events"
	"github.com/sudo-sidd/neuropilot/internal/logger"
	"github.com/sudo-sidd/neuropilot/internal/model"
	"github.com/sudo-sidd/neuropilot/internal/notify"
	"github.com/sudo-sidd/neuropilot/internal/recur"
	"github.com/sudo-sidd/neuropilot/internal/store"
	"github.com/sudo-sidd/neuropilot/internal/timeline"
)

// App holds the wired persistence core.
type App struct {
	Config     *model.AppConfig
	Store      *store.SQLiteStore
	Hub        *events.Hub
	Normalizer *timeline.Normalizer
	Generator  *recur.Generator
	Reminders  notify.Reminders
}

// New loads configuration, initializes logging, opens the store (running
// any pending schema migrations), and wires the engines. Migration runs to
// completion before anything else touches the store.
func New(configPath string) (*App, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	report := s.MigrationReport()
	if len(report.Applied) > 0 {
		logger.Info("applied schema migrations", "versions", report.Applied)
	}
	for _, sk := range report.Skipped {
		logger.Warn("migration statement skipped",
			"version", sk.Version, "index", sk.Index, "error", sk.Err)
	}

	hub := events.NewHub()

	var reminders notify.Reminders
	if cfg.Notifier.Enabled {
		reminders = notify.NewWebhookNotifier()
	}

	return &App{
		Config:     cfg,
		Store:      s,
		Hub:        hub,
		Normalizer: timeline.NewNormalizer(s, hub, time.Duration(cfg.Timeline.MergeThresholdSec)*time.Second),
		Generator:  recur.NewGenerator(s, hub, reminders),
		Reminders:  reminders,
	}, nil
}

// SaveActivity writes a manual activity create or edit and runs the
// timeline repair over the stored row. The write is not considered complete
// until normalization has committed.
func (a *App) SaveActivity(ctx context.Context, act model.Activity) (*model.Activity, error) {
	var saved *model.Activity
	if act.ID == "" {
		created, err := a.Store.CreateActivity(ctx, act)
		if err != nil {
			return nil, err
		}
		saved = created
	} else {
		if err := a.Store.UpdateActivity(ctx, act); err != nil {
			return nil, err
		}
		saved = &act
	}
	if err := a.Normalizer.NormalizeAfterWrite(ctx, saved.ID); err != nil {
		return saved, err
	}
	return saved, nil
}

// StartTracking opens a new activity at the given instant. When this hands
// off from a running activity the auto-closed row is repaired the same way a
// manual stop is, so a block that ran across midnight ends up split at the
// day boundary.
func (a *App) StartTracking(ctx context.Context, actionClassID, description string, at time.Time) (*model.Activity, error) {
	prev, err := a.Store.GetCurrentActivity(ctx)
	if err != nil {
		return nil, err
	}
	started, err := a.Store.StartActivity(ctx, actionClassID, description, at)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		if err := a.Normalizer.NormalizeAfterWrite(ctx, prev.ID); err != nil {
			return started, err
		}
	}
	return started, nil
}

// StopTracking closes the running activity at the given instant and repairs
// the timeline around the closed row. Returns nil when nothing was running.
func (a *App) StopTracking(ctx context.Context, at time.Time) (*model.Activity, error) {
	closed, err := a.Store.StopCurrentActivity(ctx, at)
	if err != nil || closed == nil {
		return closed, err
	}
	if err := a.Normalizer.NormalizeAfterWrite(ctx, closed.ID); err != nil {
		return closed, err
	}
	return closed, nil
}

// CompleteTask marks a task done and cancels its pending reminder, if any.
// Cancellation is best-effort and never fails the status change.
func (a *App) CompleteTask(ctx context.Context, id string) error {
	task, err := a.Store.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	task.Status = model.TaskStatusDone
	if err := a.Store.UpdateTask(ctx, *task); err != nil {
		return err
	}
	a.cancelReminder(ctx, task)
	a.Hub.Emit(events.DomainTasks)
	return nil
}

// RemoveTask deletes a task, cancelling its pending reminder first.
func (a *App) RemoveTask(ctx context.Context, id string) error {
	task, err := a.Store.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	a.cancelReminder(ctx, task)
	if err := a.Store.DeleteTask(ctx, id); err != nil {
		return err
	}
	a.Hub.Emit(events.DomainTasks)
	return nil
}

func (a *App) cancelReminder(ctx context.Context, task *model.Task) {
	if a.Reminders == nil || task.ReminderNotificationID == nil {
		return
	}
	if err := a.Reminders.CancelReminder(ctx, *task.ReminderNotificationID); err != nil {
		logger.Warn("cancelling reminder failed",
			"task", task.ID, "reminder", *task.ReminderNotificationID, "error", err)
		return
	}
	if err := a.Store.SetTaskReminder(ctx, task.ID, nil); err != nil {
		logger.Warn("clearing reminder id failed", "task", task.ID, "error", err)
	}
}

// RunStartupTasks performs the background passes expected on every app
// start: a recurrence expansion over the configured window.
func (a *App) RunStartupTasks(ctx context.Context) error {
	created, err := a.Generator.GenerateInstances(ctx, a.Config.Generation.WindowDays)
	if err != nil {
		return fmt.Errorf("recurrence expansion: %w", err)
	}
	logger.Debug("startup recurrence pass complete", "created", created)
	return nil
}

// Close releases the store and shuts the event hub down.
func (a *App) Close() error {
	a.Hub.Close()
	return a.Store.Close()
}
