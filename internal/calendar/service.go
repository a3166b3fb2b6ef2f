package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hray3182/daybook/internal/models"
	"github.com/hray3182/daybook/internal/reminder"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrMissingUser  = errors.New("missing user")
	ErrInvalidLimit = errors.New("invalid limit")
)

const (
	DefaultOccurrenceLimit = 5
	MaxOccurrenceLimit     = 50
)

// Store loads a user's calendar sources.
type Store interface {
	OwnedTasks(ctx context.Context, userID string) ([]models.Task, error)
	SharedTasks(ctx context.Context, userID string) ([]models.SharedTask, error)
	// Notes returns notes touched within rng.
	Notes(ctx context.Context, userID string, rng Range) ([]models.Note, error)
	// Entries returns single entries starting within rng plus every
	// recurring entry that starts before rng.End.
	Entries(ctx context.Context, userID string, rng Range) ([]models.CalendarEntry, error)
	Reminders(ctx context.Context, userID string) ([]models.Reminder, error)
	// Task returns a task the user owns or was granted. It returns an error
	// wrapping ErrNotFound otherwise.
	Task(ctx context.Context, userID, taskID string) (*models.Task, error)
}

// Query carries the raw request parameters of a calendar view.
type Query struct {
	UserID   string
	From     string
	To       string
	Timezone string
	Scope    string
}

type Service struct {
	store           Store
	defaultTimezone string
	now             func() time.Time
}

func NewService(store Store, defaultTimezone string) *Service {
	return &Service{
		store:           store,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// Aggregate returns the per-day view for q.
func (s *Service) Aggregate(ctx context.Context, q Query) (*models.AggregationResponse, error) {
	in, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return Aggregate(*in), nil
}

// Calendar returns the flat view for q.
func (s *Service) Calendar(ctx context.Context, q Query) (*models.CalendarResponse, error) {
	in, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return Flatten(*in), nil
}

// TaskOccurrences lists up to limit upcoming reminder instants of one task,
// starting at from (default now). A limit of zero means the default.
func (s *Service) TaskOccurrences(ctx context.Context, userID, taskID, from string, limit int, timezone string) (*models.TaskOccurrences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	switch {
	case limit == 0:
		limit = DefaultOccurrenceLimit
	case limit < 0 || limit > MaxOccurrenceLimit:
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidLimit, limit, MaxOccurrenceLimit)
	}

	loc := ResolveLocation(s.timezone(timezone))
	ref := s.now()
	if strings.TrimSpace(from) != "" {
		var err error
		if ref, err = parseBound(from, loc, false); err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
	}

	task, err := s.store.Task(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}

	occurrences := reminder.UpcomingOccurrences(reminder.ScheduleFromTask(task), ref, limit)
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	return &models.TaskOccurrences{
		TaskID:      task.TaskID,
		Timezone:    loc.String(),
		Occurrences: occurrences,
	}, nil
}

func (s *Service) timezone(name string) string {
	if strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return s.defaultTimezone
}

// load validates q and fetches every source concurrently. The first failing
// fetch cancels the rest and fails the whole request.
func (s *Service) load(ctx context.Context, q Query) (*Input, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, ErrMissingUser
	}
	scope, err := ParseScope(q.Scope)
	if err != nil {
		return nil, err
	}
	tz := s.timezone(q.Timezone)
	rng, err := ParseRange(q.From, q.To, ResolveLocation(tz), s.now())
	if err != nil {
		return nil, err
	}

	in := &Input{Range: rng, Timezone: tz, Scope: scope}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tasks, err := s.store.OwnedTasks(gctx, q.UserID)
		if err != nil {
			return fmt.Errorf("load owned tasks: %w", err)
		}
		in.OwnedTasks = tasks
		return nil
	})
	g.Go(func() error {
		tasks, err := s.store.SharedTasks(gctx, q.UserID)
		if err != nil {
			return fmt.Errorf("load shared tasks: %w", err)
		}
		in.SharedTasks = tasks
		return nil
	})
	g.Go(func() error {
		notes, err := s.store.Notes(gctx, q.UserID, rng)
		if err != nil {
			return fmt.Errorf("load notes: %w", err)
		}
		in.Notes = notes
		return nil
	})
	g.Go(func() error {
		entries, err := s.store.Entries(gctx, q.UserID, rng)
		if err != nil {
			return fmt.Errorf("load calendar entries: %w", err)
		}
		in.Entries = entries
		return nil
	})
	g.Go(func() error {
		reminders, err := s.store.Reminders(gctx, q.UserID)
		if err != nil {
			return fmt.Errorf("load reminders: %w", err)
		}
		in.Reminders = reminders
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}
