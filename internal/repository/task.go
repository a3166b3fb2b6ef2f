package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/daybook/internal/database"
	"github.com/hray3182/daybook/internal/models"
)

const taskColumns = `t.id, t.user_id, t.title, t.completed, t.due_date, t.reminder_minutes_before,
	 t.reminder_recurrence, t.reminder_next_trigger_at, t.reminder_snoozed_until, t.reminder_timezone,
	 t.category, t.category_color, t.created_at, t.updated_at`

type TaskRepository struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner, task *models.Task) error {
	return row.Scan(&task.TaskID, &task.UserID, &task.Title, &task.Completed, &task.DueDate,
		&task.ReminderMinutesBefore, &task.ReminderRecurrence, &task.ReminderNextTriggerAt,
		&task.ReminderSnoozedUntil, &task.ReminderTimezone, &task.Category, &task.CategoryColor,
		&task.CreatedAt, &task.UpdatedAt)
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.TaskID == "" {
		task.TaskID = uuid.New().String()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, completed, due_date, reminder_minutes_before,
		 reminder_recurrence, reminder_next_trigger_at, reminder_snoozed_until, reminder_timezone,
		 category, category_color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at`,
		task.TaskID, task.UserID, task.Title, task.Completed, task.DueDate, task.ReminderMinutesBefore,
		task.ReminderRecurrence, task.ReminderNextTriggerAt, task.ReminderSnoozedUntil, task.ReminderTimezone,
		task.Category, task.CategoryColor,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

// GetOwned returns every task the user owns.
func (r *TaskRepository) GetOwned(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks t WHERE t.user_id = $1
		 ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// GetShared returns tasks other users granted to userID, with the granted role.
func (r *TaskRepository) GetShared(ctx context.Context, userID string) ([]models.SharedTask, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+taskColumns+`, c.role
		 FROM tasks t JOIN task_collaborators c ON c.task_id = t.id
		 WHERE c.user_id = $1 AND t.user_id <> $1
		 ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.SharedTask
	for rows.Next() {
		var st models.SharedTask
		if err := rows.Scan(&st.Task.TaskID, &st.Task.UserID, &st.Task.Title, &st.Task.Completed,
			&st.Task.DueDate, &st.Task.ReminderMinutesBefore, &st.Task.ReminderRecurrence,
			&st.Task.ReminderNextTriggerAt, &st.Task.ReminderSnoozedUntil, &st.Task.ReminderTimezone,
			&st.Task.Category, &st.Task.CategoryColor, &st.Task.CreatedAt, &st.Task.UpdatedAt,
			&st.Role); err != nil {
			return nil, err
		}
		tasks = append(tasks, st)
	}
	return tasks, rows.Err()
}

// GetAccessible loads a task the user owns or collaborates on. It returns
// pgx.ErrNoRows when neither applies.
func (r *TaskRepository) GetAccessible(ctx context.Context, taskID, userID string) (*models.Task, error) {
	task := &models.Task{}
	err := scanTask(r.db.Pool.QueryRow(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks t
		 WHERE t.id = $1 AND (t.user_id = $2 OR EXISTS (
		     SELECT 1 FROM task_collaborators c WHERE c.task_id = t.id AND c.user_id = $2))`,
		taskID, userID,
	), task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// editableBy restricts an UPDATE on tasks t to rows the user owns or edits.
const editableBy = `(t.user_id = $3 OR EXISTS (
	 SELECT 1 FROM task_collaborators c WHERE c.task_id = t.id AND c.user_id = $3 AND c.role IN ('owner', 'editor')))`

// SetCompleted marks a task done or open. Owners and editors may change it;
// anyone else gets pgx.ErrNoRows.
func (r *TaskRepository) SetCompleted(ctx context.Context, taskID, userID string, completed bool) error {
	return r.execEditable(ctx,
		`UPDATE tasks t SET completed = $1, updated_at = NOW() WHERE t.id = $2 AND `+editableBy,
		completed, taskID, userID,
	)
}

// Snooze sets or clears (nil) the snooze bound, with the same access rule
// as SetCompleted.
func (r *TaskRepository) Snooze(ctx context.Context, taskID, userID string, until *time.Time) error {
	return r.execEditable(ctx,
		`UPDATE tasks t SET reminder_snoozed_until = $1, updated_at = NOW() WHERE t.id = $2 AND `+editableBy,
		until, taskID, userID,
	)
}

func (r *TaskRepository) execEditable(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Share grants collaboratorID access to the task, replacing any earlier role.
func (r *TaskRepository) Share(ctx context.Context, taskID, collaboratorID string, role models.AccessRole) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO task_collaborators (task_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (task_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		taskID, collaboratorID, role,
	)
	return err
}

// GetStaleTriggers returns open tasks whose cached next trigger is at or
// before now.
func (r *TaskRepository) GetStaleTriggers(ctx context.Context, now time.Time) ([]models.Task, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks t
		 WHERE t.completed = FALSE AND t.reminder_next_trigger_at IS NOT NULL
		   AND t.reminder_next_trigger_at <= $1
		 ORDER BY t.reminder_next_trigger_at ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// UpdateNextTrigger stores the cached next trigger; nil clears it.
func (r *TaskRepository) UpdateNextTrigger(ctx context.Context, taskID string, next *time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE tasks SET reminder_next_trigger_at = $1 WHERE id = $2`,
		next, taskID,
	)
	return err
}
