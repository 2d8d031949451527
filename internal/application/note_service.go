package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// GlobalNoteID identifies the single shared note.
const GlobalNoteID = "GLOBAL"

const maxNoteLength = 5000

// NoteRepository persists admin notes by id.
type NoteRepository interface {
	GetNote(ctx context.Context, id string) (AdminNote, error)
	SaveNote(ctx context.Context, note AdminNote) (AdminNote, error)
}

// AdminNoteService reads and writes the shared calendar note.
type AdminNoteService struct {
	notes  NoteRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewAdminNoteService wires the note service.
func NewAdminNoteService(notes NoteRepository, now func() time.Time) *AdminNoteService {
	return NewAdminNoteServiceWithLogger(notes, now, nil)
}

// NewAdminNoteServiceWithLogger wires the note service with a specific logger.
func NewAdminNoteServiceWithLogger(notes NoteRepository, now func() time.Time, logger *slog.Logger) *AdminNoteService {
	if now == nil {
		now = time.Now
	}
	return &AdminNoteService{notes: notes, now: now, logger: defaultLogger(logger)}
}

// Get returns the note, or an empty one when nothing was saved yet.
func (s *AdminNoteService) Get(ctx context.Context, principal Principal) (AdminNote, error) {
	if s == nil || s.notes == nil {
		return AdminNote{}, fmt.Errorf("note repository not configured")
	}
	if principal.UserID == "" {
		return AdminNote{}, ErrUnauthorized
	}

	note, err := s.notes.GetNote(ctx, GlobalNoteID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			return AdminNote{ID: GlobalNoteID}, nil
		}
		return AdminNote{}, err
	}
	return note, nil
}

// Save replaces the note content for administrators.
func (s *AdminNoteService) Save(ctx context.Context, principal Principal, content string) (note AdminNote, err error) {
	if s == nil || s.notes == nil {
		err = fmt.Errorf("note repository not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AdminNoteService", "Save", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to save note", "note saved", "length", utf8.RuneCountInString(note.Content))
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if utf8.RuneCountInString(content) > maxNoteLength {
		err = &ValidationError{FieldErrors: map[string]string{"content": "content is too long"}}
		return
	}

	author := principal.Username
	if author == "" {
		author = principal.UserID
	}
	note, err = s.notes.SaveNote(ctx, AdminNote{
		ID:        GlobalNoteID,
		Content:   content,
		UpdatedBy: author,
		UpdatedAt: s.now(),
	})
	err = mapRepoError(err)
	return
}
