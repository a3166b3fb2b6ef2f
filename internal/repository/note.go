package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/daybook/internal/database"
	"github.com/hray3182/daybook/internal/models"
)

type NoteRepository struct {
	db *database.DB
}

func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.NoteID == "" {
		note.NoteID = uuid.New().String()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, summary) VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		note.NoteID, note.UserID, note.Title, note.Summary,
	).Scan(&note.CreatedAt)
}

// GetTouchedBetween returns notes whose last edit (or creation, if never
// edited) falls within [start, end], most recent first.
func (r *NoteRepository) GetTouchedBetween(ctx context.Context, userID string, start, end time.Time) ([]models.Note, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, summary, created_at, updated_at
		 FROM notes
		 WHERE user_id = $1 AND COALESCE(updated_at, created_at) BETWEEN $2 AND $3
		 ORDER BY COALESCE(updated_at, created_at) DESC`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.NoteID, &note.UserID, &note.Title, &note.Summary,
			&note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
