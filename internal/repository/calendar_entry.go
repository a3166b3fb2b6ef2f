package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/daybook/internal/database"
	"github.com/hray3182/daybook/internal/models"
)

type CalendarEntryRepository struct {
	db *database.DB
}

func NewCalendarEntryRepository(db *database.DB) *CalendarEntryRepository {
	return &CalendarEntryRepository{db: db}
}

func (r *CalendarEntryRepository) Create(ctx context.Context, entry *models.CalendarEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO calendar_entries (id, user_id, title, description, location, start_time, end_time,
		 all_day, recurrence_rule)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		entry.EntryID, entry.UserID, entry.Title, entry.Description, entry.Location,
		entry.StartTime, entry.EndTime, entry.AllDay, entry.RecurrenceRule,
	).Scan(&entry.CreatedAt)
}

// GetBetween returns single entries starting within [start, end] and every
// recurring entry that starts by end, since those may repeat into the window.
func (r *CalendarEntryRepository) GetBetween(ctx context.Context, userID string, start, end time.Time) ([]models.CalendarEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, description, location, start_time, end_time, all_day,
		 recurrence_rule, created_at
		 FROM calendar_entries
		 WHERE user_id = $1 AND start_time <= $3 AND (start_time >= $2 OR recurrence_rule <> '')
		 ORDER BY start_time ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	return r.scanEntries(rows)
}

func (r *CalendarEntryRepository) scanEntries(rows pgx.Rows) ([]models.CalendarEntry, error) {
	defer rows.Close()

	var entries []models.CalendarEntry
	for rows.Next() {
		var entry models.CalendarEntry
		if err := rows.Scan(&entry.EntryID, &entry.UserID, &entry.Title, &entry.Description,
			&entry.Location, &entry.StartTime, &entry.EndTime, &entry.AllDay, &entry.RecurrenceRule,
			&entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
