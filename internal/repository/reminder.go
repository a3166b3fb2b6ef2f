package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/daybook/internal/database"
	"github.com/hray3182/daybook/internal/models"
)

const reminderColumns = `id, user_id, enabled, recurrence_rule, dtstart, message, remind_at, description, created_at`

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ReminderID == "" {
		reminder.ReminderID = uuid.New().String()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (id, user_id, enabled, recurrence_rule, dtstart, message, remind_at, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		reminder.ReminderID, reminder.UserID, reminder.Enabled, reminder.RecurrenceRule, reminder.Dtstart,
		reminder.Message, reminder.RemindAt, reminder.Description,
	).Scan(&reminder.CreatedAt)
}

func (r *ReminderRepository) GetByUserID(ctx context.Context, userID string) ([]models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+`
		 FROM reminders WHERE user_id = $1 ORDER BY remind_at ASC NULLS LAST`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

func (r *ReminderRepository) UpdateRemindAt(ctx context.Context, reminderID string, remindAt *time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET remind_at = $1 WHERE id = $2`,
		remindAt, reminderID,
	)
	return err
}

// SetEnabled turns a reminder on or off. It returns pgx.ErrNoRows when the
// user has no such reminder.
func (r *ReminderRepository) SetEnabled(ctx context.Context, reminderID, userID string, enabled bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET enabled = $1 WHERE id = $2 AND user_id = $3`,
		enabled, reminderID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetPassedRecurring returns enabled recurring reminders whose remind_at is
// no later than now.
func (r *ReminderRepository) GetPassedRecurring(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+`
		 FROM reminders
		 WHERE enabled = TRUE AND recurrence_rule <> '' AND dtstart IS NOT NULL
		   AND remind_at IS NOT NULL AND remind_at <= $1
		 ORDER BY remind_at ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

func scanReminders(rows pgx.Rows) ([]models.Reminder, error) {
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var reminder models.Reminder
		if err := rows.Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Enabled, &reminder.RecurrenceRule,
			&reminder.Dtstart, &reminder.Message, &reminder.RemindAt, &reminder.Description, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
