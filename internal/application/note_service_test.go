package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

type noteRepositoryStub struct {
	note  *AdminNote
	saved []AdminNote
}

func (r *noteRepositoryStub) GetNote(ctx context.Context, id string) (AdminNote, error) {
	if r.note == nil {
		return AdminNote{}, persistence.ErrNotFound
	}
	return *r.note, nil
}

func (r *noteRepositoryStub) SaveNote(ctx context.Context, note AdminNote) (AdminNote, error) {
	r.note = &note
	r.saved = append(r.saved, note)
	return note, nil
}

func TestAdminNoteService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &noteRepositoryStub{}
	svc := NewAdminNoteService(repo, func() time.Time { return now })

	note, err := svc.Get(ctx, staffPrincipal)
	if err != nil || note.ID != GlobalNoteID || note.Content != "" {
		t.Fatalf("expected empty default note, got %+v err=%v", note, err)
	}

	if _, err := svc.Save(ctx, staffPrincipal, "hello"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Save(ctx, adminPrincipal, strings.Repeat("가", maxNoteLength+1)); err == nil {
		t.Fatal("expected oversized note to be rejected")
	}

	note, err = svc.Save(ctx, adminPrincipal, "이번 주 리허설")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if note.UpdatedBy != "관리자" || !note.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected saved note %+v", note)
	}

	note, err = svc.Get(ctx, staffPrincipal)
	if err != nil || note.Content != "이번 주 리허설" {
		t.Fatalf("unexpected note %+v err=%v", note, err)
	}
}
