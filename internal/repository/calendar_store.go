package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/daybook/internal/calendar"
	"github.com/hray3182/daybook/internal/database"
	"github.com/hray3182/daybook/internal/models"
)

// CalendarStore serves calendar.Service from Postgres.
type CalendarStore struct {
	TaskRepo     *TaskRepository
	NoteRepo     *NoteRepository
	EntryRepo    *CalendarEntryRepository
	ReminderRepo *ReminderRepository
}

var _ calendar.Store = (*CalendarStore)(nil)

func NewCalendarStore(db *database.DB) *CalendarStore {
	return &CalendarStore{
		TaskRepo:     NewTaskRepository(db),
		NoteRepo:     NewNoteRepository(db),
		EntryRepo:    NewCalendarEntryRepository(db),
		ReminderRepo: NewReminderRepository(db),
	}
}

func (s *CalendarStore) OwnedTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.TaskRepo.GetOwned(ctx, userID)
}

func (s *CalendarStore) SharedTasks(ctx context.Context, userID string) ([]models.SharedTask, error) {
	return s.TaskRepo.GetShared(ctx, userID)
}

func (s *CalendarStore) Notes(ctx context.Context, userID string, rng calendar.Range) ([]models.Note, error) {
	return s.NoteRepo.GetTouchedBetween(ctx, userID, rng.Start, rng.End)
}

func (s *CalendarStore) Entries(ctx context.Context, userID string, rng calendar.Range) ([]models.CalendarEntry, error) {
	return s.EntryRepo.GetBetween(ctx, userID, rng.Start, rng.End)
}

func (s *CalendarStore) Reminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	return s.ReminderRepo.GetByUserID(ctx, userID)
}

func (s *CalendarStore) Task(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.TaskRepo.GetAccessible(ctx, taskID, userID)
	if err != nil {
		return nil, notFound("task", taskID, err)
	}
	return task, nil
}

func (s *CalendarStore) CompleteTask(ctx context.Context, userID, taskID string, completed bool) error {
	return notFound("task", taskID, s.TaskRepo.SetCompleted(ctx, taskID, userID, completed))
}

func (s *CalendarStore) SnoozeTask(ctx context.Context, userID, taskID string, until *time.Time) error {
	return notFound("task", taskID, s.TaskRepo.Snooze(ctx, taskID, userID, until))
}

func (s *CalendarStore) SetReminderEnabled(ctx context.Context, userID, reminderID string, enabled bool) error {
	return notFound("reminder", reminderID, s.ReminderRepo.SetEnabled(ctx, reminderID, userID, enabled))
}

// notFound turns pgx.ErrNoRows into calendar.ErrNotFound and passes other
// errors through.
func notFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, calendar.ErrNotFound)
	}
	return err
}
