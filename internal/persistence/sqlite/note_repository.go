package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

// NoteRepository implements persistence.NoteRepository using SQLite.
type NoteRepository struct {
	repository
}

// NewNoteRepository creates a new SQLite note repository.
func NewNoteRepository(pool *ConnectionPool) *NoteRepository {
	return &NoteRepository{repository: newRepository(pool)}
}

// GetNote returns the note with id or persistence.ErrNotFound.
func (r *NoteRepository) GetNote(ctx context.Context, id string) (persistence.Note, error) {
	var (
		note       persistence.Note
		updatedStr string
	)
	err := r.helper.QueryRow(ctx, `SELECT id, content, updated_by, updated_at FROM admin_notes WHERE id = ?`, id).
		Scan(&note.ID, &note.Content, &note.UpdatedBy, &updatedStr)
	if err != nil {
		return persistence.Note{}, r.mapper.MapError(err)
	}
	if note.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Note{}, err
	}
	return note, nil
}

// SaveNote creates or overwrites the note.
func (r *NoteRepository) SaveNote(ctx context.Context, note persistence.Note) (persistence.Note, error) {
	if note.ID == "" {
		return persistence.Note{}, persistence.ErrConstraintViolation
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = time.Now()
	}
	err := r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO admin_notes (id, content, updated_by, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				content = excluded.content,
				updated_by = excluded.updated_by,
				updated_at = excluded.updated_at`,
			note.ID, note.Content, note.UpdatedBy, formatTime(note.UpdatedAt))
		return err
	})
	if err != nil {
		return persistence.Note{}, err
	}
	return r.GetNote(ctx, note.ID)
}
