package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/attendance"
	"github.com/example/showflix-scheduler/internal/persistence"
	"github.com/example/showflix-scheduler/internal/testfixtures"
	"github.com/example/showflix-scheduler/internal/timetable"
)

func TestUserRepositoryAdapter(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewTickingClock(testfixtures.ReferenceTime(), time.Second)
	users := newUserRepositoryAdapter(h.Users)

	created, err := users.CreateUser(ctx, application.User{
		UserID:      "kim",
		Username:    "김민수",
		AccountType: application.AccountTypeCaptain,
		CreatedAt:   clock.Now(),
		UpdatedAt:   clock.Now(),
	}, "hash-1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.AccountType != application.AccountTypeCaptain || created.Username != "김민수" {
		t.Fatalf("unexpected user %+v", created)
	}

	creds, err := users.GetUserCredentials(ctx, "kim")
	if err != nil || creds.PasswordHash != "hash-1" || creds.User.UserID != "kim" {
		t.Fatalf("credentials = %+v, err = %v", creds, err)
	}

	created.PhoneNumber = "01012345678"
	created.UpdatedAt = clock.Now()
	updated, err := users.UpdateUser(ctx, created)
	if err != nil || updated.PhoneNumber != "01012345678" {
		t.Fatalf("UpdateUser = %+v, err = %v", updated, err)
	}
	if creds, _ = users.GetUserCredentials(ctx, "kim"); creds.PasswordHash != "hash-1" {
		t.Fatalf("profile update replaced the password hash")
	}

	if _, err := users.GetUser(ctx, "nobody"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("GetUser(missing) err = %v", err)
	}
}

func TestSessionRepositoryAdapter(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("session")

	if err := h.Users.CreateUser(ctx, testfixtures.NewUser(testfixtures.WithUserID("kim"))); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sessions := newSessionRepositoryAdapter(h.Sessions)

	now := clock.Now()
	stored, err := sessions.CreateSession(ctx, application.Session{
		ID:        ids.Next(),
		UserID:    "kim",
		TokenHash: "digest",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if stored.ID != "session-0001" || !stored.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session %+v", stored)
	}

	revoked, err := sessions.RevokeSession(ctx, "digest", clock.Advance(time.Minute))
	if err != nil || revoked.RevokedAt == nil {
		t.Fatalf("RevokeSession = %+v, err = %v", revoked, err)
	}
}

func TestSelectionRepositoryAdapterKeepsFields(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	selections := newSelectionRepositoryAdapter(h.Selections)

	err := selections.UpsertSelections(ctx, []attendance.Record{
		{Date: "2024-03-15", UserID: "kim", UserName: "김민수", OpenHope: true},
		{Date: "2024-03-16", UserID: "lee", UserName: "이서연", Role: "MC", Remarks: "late"},
	})
	if err != nil {
		t.Fatalf("UpsertSelections: %v", err)
	}

	n, err := selections.UpdateAssignments(ctx, []application.AttendeeAssignment{{Date: "2024-03-15", UserID: "kim", Role: "Lead"}})
	if err != nil || n != 1 {
		t.Fatalf("UpdateAssignments = %d, err = %v", n, err)
	}

	records, err := selections.ListSelections(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListSelections: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if !records[0].OpenHope || records[0].Role != "Lead" || records[0].Confirmed != "N" {
		t.Fatalf("first record = %+v", records[0])
	}
	if records[1].OpenHope || records[1].Remarks != "late" {
		t.Fatalf("second record = %+v", records[1])
	}
}

func TestHourAndNoteAdapters(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	hours := newHourRepositoryAdapter(h.Hours)
	if err := hours.UpsertHours(ctx, []timetable.Entry{{Date: "2024-03-15", Username: "김민수", Hours: 3.5}}); err != nil {
		t.Fatalf("UpsertHours: %v", err)
	}
	entries, err := hours.ListHoursForUser(ctx, "김민수", "2024-03-01", "2024-03-31")
	if err != nil || len(entries) != 1 || entries[0].Hours != 3.5 {
		t.Fatalf("entries = %+v, err = %v", entries, err)
	}

	notes := newNoteRepositoryAdapter(h.Notes)
	saved, err := notes.SaveNote(ctx, application.AdminNote{ID: application.GlobalNoteID, Content: "공지", UpdatedBy: "admin", UpdatedAt: clock.Now()})
	if err != nil || saved.Content != "공지" {
		t.Fatalf("SaveNote = %+v, err = %v", saved, err)
	}
}

func TestReservationRepositoryAdapter(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewTickingClock(testfixtures.ReferenceTime(), time.Minute)
	ids := testfixtures.NewIDGenerator("rsv")
	reservations := newReservationRepositoryAdapter(h.Reservations)

	people := 12
	var createdIDs []string
	for _, name := range []string{"한빛고", "누리중"} {
		now := clock.Now()
		r, err := reservations.CreateReservation(ctx, application.Reservation{
			ID:           ids.Next(),
			Date:         "2024-03-20",
			Time:         "14:00",
			CustomerName: name,
			PeopleCount:  &people,
			CreatedAt:    now,
			UpdatedAt:    now,
			CreatedBy:    "admin",
			UpdatedBy:    "admin",
		})
		if err != nil {
			t.Fatalf("CreateReservation(%s): %v", name, err)
		}
		if r.Status != application.ReservationPending || r.Highlight != application.HighlightNone {
			t.Fatalf("defaults not applied: %+v", r)
		}
		createdIDs = append(createdIDs, r.ID)
	}

	status := application.ReservationConfirmed
	highlight := application.HighlightGreen
	n, err := reservations.UpdateReservations(ctx, createdIDs, &status, &highlight, "admin", clock.Now())
	if err != nil || n != 2 {
		t.Fatalf("UpdateReservations = %d, err = %v", n, err)
	}

	confirmed, err := reservations.ReservationsByStatus(ctx, application.ReservationConfirmed)
	if err != nil || len(confirmed) != 2 || confirmed[0].Highlight != application.HighlightGreen {
		t.Fatalf("ReservationsByStatus = %+v, err = %v", confirmed, err)
	}

	page, total, err := reservations.PageReservations(ctx, application.PageRequest{Page: 0, Size: 1, SortBy: "customerName", SortDir: "asc"})
	if err != nil || total != 2 || len(page) != 1 || page[0].CustomerName != "누리중" {
		t.Fatalf("PageReservations = %+v total=%d err=%v", page, total, err)
	}

	found, err := reservations.SearchReservations(ctx, application.ReservationSearch{CustomerName: "한빛"})
	if err != nil || len(found) != 1 || found[0].ID != "rsv-0001" {
		t.Fatalf("SearchReservations = %+v, err = %v", found, err)
	}
}

func TestWorkLogRepositoryAdapter(t *testing.T) {
	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	logs := newWorkLogRepositoryAdapter(h.WorkLogs)

	now := clock.Now()
	created, err := logs.CreateWorkLog(ctx, application.WorkLog{ID: "log-1", Date: "2024-03-15", Manager: "박지훈", CreatedAt: now, UpdatedAt: now})
	if err != nil || created.Manager != "박지훈" {
		t.Fatalf("CreateWorkLog = %+v, err = %v", created, err)
	}

	created.Notes = "정산 완료"
	created.UpdatedAt = clock.Advance(time.Hour)
	updated, err := logs.UpdateWorkLog(ctx, created)
	if err != nil || updated.Notes != "정산 완료" {
		t.Fatalf("UpdateWorkLog = %+v, err = %v", updated, err)
	}

	if err := logs.DeleteWorkLog(ctx, "log-1"); err != nil {
		t.Fatalf("DeleteWorkLog: %v", err)
	}
	if _, err := logs.GetWorkLog(ctx, "log-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("GetWorkLog after delete err = %v", err)
	}
}
