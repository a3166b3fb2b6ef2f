// Package scheduler keeps cached reminder triggers current. It never
// delivers notifications; it only advances the stored next-fire instants.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "github.com/hray3182/daybook/internal/log"
	"github.com/hray3182/daybook/internal/models"
	"github.com/hray3182/daybook/internal/reminder"
	"github.com/hray3182/daybook/internal/rrule"
)

// TaskStore is the subset of repository.TaskRepository the refresher uses.
type TaskStore interface {
	GetStaleTriggers(ctx context.Context, now time.Time) ([]models.Task, error)
	UpdateNextTrigger(ctx context.Context, taskID string, next *time.Time) error
}

// ReminderStore is the subset of repository.ReminderRepository the
// refresher uses.
type ReminderStore interface {
	GetPassedRecurring(ctx context.Context, now time.Time) ([]models.Reminder, error)
	UpdateRemindAt(ctx context.Context, reminderID string, remindAt *time.Time) error
}

type Scheduler struct {
	tasks     TaskStore
	reminders ReminderStore
	spec      string
	now       func() time.Time
	notifyCh  chan struct{}
}

// New validates spec (standard five-field cron syntax) and returns a
// scheduler that has not been started.
func New(tasks TaskStore, reminders ReminderStore, spec string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return &Scheduler{
		tasks:     tasks,
		reminders: reminders,
		spec:      spec,
		now:       time.Now,
		notifyCh:  make(chan struct{}, 1),
	}, nil
}

// Notify triggers an immediate refresh. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start runs one refresh, then refreshes on the cron schedule until ctx is
// cancelled. It blocks.
func (s *Scheduler) Start(ctx context.Context) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := c.AddFunc(s.spec, func() { s.Refresh(ctx) }); err != nil {
		appLog.Error("scheduler: failed to register refresh job", err, "spec", s.spec)
		return
	}

	appLog.Info("scheduler started", "spec", s.spec)
	s.Refresh(ctx)
	c.Start()

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			appLog.Info("scheduler stopped")
			return
		case <-s.notifyCh:
			appLog.Debug("scheduler triggered by notification")
			s.Refresh(ctx)
		}
	}
}

// Refresh advances every stale task trigger and every passed recurring
// reminder. Failures are logged per item and do not stop the pass.
func (s *Scheduler) Refresh(ctx context.Context) {
	now := s.now()
	s.refreshTasks(ctx, now)
	s.refreshReminders(ctx, now)
}

func (s *Scheduler) refreshTasks(ctx context.Context, now time.Time) {
	tasks, err := s.tasks.GetStaleTriggers(ctx, now)
	if err != nil {
		appLog.Error("scheduler: failed to load stale triggers", err)
		return
	}

	for i := range tasks {
		task := &tasks[i]
		var next *time.Time
		if t, ok := reminder.NextOccurrence(reminder.ScheduleFromTask(task), now, true); ok {
			next = &t
		}
		if err := s.tasks.UpdateNextTrigger(ctx, task.TaskID, next); err != nil {
			appLog.Error("scheduler: failed to update next trigger", err, "task", task.TaskID)
			continue
		}
		if next != nil {
			appLog.Debug("scheduled next task reminder", "task", task.TaskID, "at", next.Format(time.RFC3339))
		} else {
			appLog.Debug("task reminder exhausted", "task", task.TaskID)
		}
	}
}

func (s *Scheduler) refreshReminders(ctx context.Context, now time.Time) {
	reminders, err := s.reminders.GetPassedRecurring(ctx, now)
	if err != nil {
		appLog.Error("scheduler: failed to load passed reminders", err)
		return
	}

	for i := range reminders {
		r := &reminders[i]
		if r.Dtstart == nil {
			continue
		}
		next, err := rrule.NextOccurrence(r.RecurrenceRule, *r.Dtstart, now)
		if err != nil {
			appLog.Warn("scheduler: bad reminder recurrence", "reminder", r.ReminderID, "err", err)
			next = nil
		}
		if err := s.reminders.UpdateRemindAt(ctx, r.ReminderID, next); err != nil {
			appLog.Error("scheduler: failed to update remind_at", err, "reminder", r.ReminderID)
			continue
		}
		if next != nil {
			appLog.Debug("scheduled next reminder", "reminder", r.ReminderID, "at", next.Format(time.RFC3339))
		}
	}
}

// cronLogger routes robfig/cron's logging through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
