package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
	"github.com/example/showflix-scheduler/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, reads, updates, and deletes users", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		user := testfixtures.NewUser(testfixtures.WithUserID("kim01"), testfixtures.WithUsername("김배우"))

		if err := h.Users.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		fetched, err := h.Users.GetUser(ctx, "kim01")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if fetched.Username != "김배우" || fetched.AccountType != "ACTOR" || fetched.IsAdmin {
			t.Fatalf("unexpected user: %+v", fetched)
		}
		if !fetched.CreatedAt.Equal(user.CreatedAt) {
			t.Fatalf("created_at round trip: got %v want %v", fetched.CreatedAt, user.CreatedAt)
		}

		fetched.Role = "LEAD"
		fetched.IsAdmin = true
		fetched.UpdatedAt = user.UpdatedAt.Add(time.Hour)
		if err := h.Users.UpdateUser(ctx, fetched); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if err := h.Users.UpdatePassword(ctx, "kim01", "new-hash", fetched.UpdatedAt); err != nil {
			t.Fatalf("UpdatePassword failed: %v", err)
		}
		updated, _ := h.Users.GetUser(ctx, "kim01")
		if updated.Role != "LEAD" || !updated.IsAdmin || updated.PasswordHash != "new-hash" {
			t.Fatalf("update not persisted: %+v", updated)
		}

		if err := h.Users.DeleteUser(ctx, "kim01"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, err := h.Users.GetUser(ctx, "kim01"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("maps constraint failures", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		user := testfixtures.NewUser()
		if err := h.Users.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		if err := h.Users.CreateUser(ctx, user); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		bad := testfixtures.NewUser(testfixtures.WithAccountType("PILOT"))
		if err := h.Users.CreateUser(ctx, bad); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
		if err := h.Users.UpdateUser(ctx, testfixtures.NewUser()); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	user := testfixtures.NewUser()
	if err := h.Users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := testfixtures.ReferenceTime()
	session := persistence.Session{
		ID:        "sess-1",
		UserID:    user.UserID,
		TokenHash: "hash-a",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := h.Sessions.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	orphan := session
	orphan.ID, orphan.UserID, orphan.TokenHash = "sess-x", "ghost", "hash-x"
	if _, err := h.Sessions.CreateSession(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}

	session.TokenHash = "hash-b"
	session.ExpiresAt = now.Add(2 * time.Hour)
	rotated, err := h.Sessions.UpdateSession(ctx, session)
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if !rotated.ExpiresAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expiry not extended: %v", rotated.ExpiresAt)
	}
	if _, err := h.Sessions.GetSession(ctx, "hash-a"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("old token hash still resolves: %v", err)
	}

	revoked, err := h.Sessions.RevokeSession(ctx, "hash-b", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected revocation: %v", revoked.RevokedAt)
	}
	again, err := h.Sessions.RevokeSession(ctx, "hash-b", now.Add(time.Hour))
	if err != nil || !again.RevokedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("second revoke should keep the first time: %v %v", again.RevokedAt, err)
	}

	if err := h.Sessions.DeleteExpiredSessions(ctx, now.Add(3*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := h.Sessions.GetSession(ctx, "hash-b"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expired session survived: %v", err)
	}
}

func TestSelectionAndTimeSlotRepositories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)

	err := h.Selections.UpsertSelections(ctx, []persistence.Selection{
		{Date: "2024-03-01", UserID: "kim", UserName: "김", Confirmed: "N"},
		{Date: "2024-03-02", UserID: "kim", UserName: "김", OpenHope: true},
		{Date: "2024-03-02", UserID: "lee", UserName: "이", Role: "SUB"},
		{Date: "2024-04-01", UserID: "lee", UserName: "이"},
	})
	if err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	updated, err := h.Selections.UpdateAssignments(ctx, []persistence.Assignment{
		{Date: "2024-03-02", UserID: "kim", Role: "LEAD", Remarks: "첫 공연"},
		{Date: "2024-03-09", UserID: "kim", Role: "LEAD"},
	})
	if err != nil || updated != 1 {
		t.Fatalf("UpdateAssignments = %d, %v; want 1", updated, err)
	}

	// Re-saving without a role keeps the assignment.
	if err := h.Selections.UpsertSelections(ctx, []persistence.Selection{{Date: "2024-03-02", UserID: "kim", UserName: "김"}}); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}

	march, err := h.Selections.ListSelections(ctx, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListSelections failed: %v", err)
	}
	if len(march) != 3 {
		t.Fatalf("expected 3 March rows, got %d", len(march))
	}
	kim := march[1]
	if kim.UserID != "kim" || kim.Role != "LEAD" || kim.Remarks != "첫 공연" || kim.OpenHope {
		t.Fatalf("unexpected row after re-upsert: %+v", kim)
	}

	if err := h.TimeSlots.ReplaceTimeSlots(ctx, "2024-03-02", []persistence.TimeSlot{
		{TimeSlot: "19:00", Theme: "A"},
		{TimeSlot: "14:00", Theme: "B"},
	}); err != nil {
		t.Fatalf("ReplaceTimeSlots failed: %v", err)
	}
	if err := h.TimeSlots.ReplaceTimeSlots(ctx, "2024-03-02", []persistence.TimeSlot{{TimeSlot: "15:00", Theme: "C"}}); err != nil {
		t.Fatalf("second ReplaceTimeSlots failed: %v", err)
	}
	slots, err := h.TimeSlots.ListTimeSlots(ctx, "2024-03-02")
	if err != nil || len(slots) != 1 || slots[0].TimeSlot != "15:00" || slots[0].Confirmed != "N" {
		t.Fatalf("unexpected slots %+v (%v)", slots, err)
	}

	if err := h.TimeSlots.SetConfirmation(ctx, "2024-03-02", "Y"); err != nil {
		t.Fatalf("SetConfirmation failed: %v", err)
	}
	confirmed, err := h.Selections.ConfirmedDates(ctx, []string{"2024-03-01", "2024-03-02"})
	if err != nil {
		t.Fatalf("ConfirmedDates failed: %v", err)
	}
	if confirmed["2024-03-01"] || !confirmed["2024-03-02"] {
		t.Fatalf("unexpected confirmed map %v", confirmed)
	}
	rows, _ := h.Selections.ListSelections(ctx, "2024-03-02", "2024-03-02")
	for _, row := range rows {
		if row.Confirmed != "Y" {
			t.Fatalf("attendance row not confirmed with slots: %+v", row)
		}
	}

	if err := h.TimeSlots.SetConfirmation(ctx, "2024-03-02", "maybe"); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for bad flag, got %v", err)
	}

	removed, err := h.Selections.DeleteSelection(ctx, "2024-04-01", "lee")
	if err != nil || !removed {
		t.Fatalf("DeleteSelection = %v, %v", removed, err)
	}
	removed, _ = h.Selections.DeleteSelection(ctx, "2024-04-01", "lee")
	if removed {
		t.Fatalf("second delete reported a removal")
	}
}

func TestNoteRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)

	if _, err := h.Notes.GetNote(ctx, "GLOBAL"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing note, got %v", err)
	}
	for _, content := range []string{"첫 메모", "두번째 메모"} {
		if _, err := h.Notes.SaveNote(ctx, persistence.Note{ID: "GLOBAL", Content: content, UpdatedBy: "admin", UpdatedAt: testfixtures.ReferenceTime()}); err != nil {
			t.Fatalf("SaveNote failed: %v", err)
		}
	}
	note, err := h.Notes.GetNote(ctx, "GLOBAL")
	if err != nil || note.Content != "두번째 메모" || note.UpdatedBy != "admin" {
		t.Fatalf("unexpected note %+v (%v)", note, err)
	}
}

func TestHourRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)

	err := h.Hours.UpsertHours(ctx, []persistence.HourEntry{
		{Date: "2024-03-01", Username: "김배우", Hours: 4},
		{Date: "2024-03-01", Username: "이배우", Hours: 2.5},
		{Date: "2024-03-02", Username: "김배우", Hours: 3},
	})
	if err != nil {
		t.Fatalf("UpsertHours failed: %v", err)
	}

	err = h.Hours.UpsertHours(ctx, []persistence.HourEntry{
		{Date: "2024-03-02", Username: "김배우", Hours: 6},
		{Date: "2024-03-03", Username: "김배우", Hours: 25},
	})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	kim, err := h.Hours.ListHoursForUser(ctx, "김배우", "2024-03-01", "2024-03-31")
	if err != nil || len(kim) != 2 || kim[1].Hours != 3 {
		t.Fatalf("failed batch should roll back: %+v (%v)", kim, err)
	}

	changed, err := h.Hours.UpdateDailyRemarks(ctx, "2024-03-01", "리허설")
	if err != nil || changed != 2 {
		t.Fatalf("UpdateDailyRemarks = %d, %v", changed, err)
	}
	removed, err := h.Hours.DeleteHours(ctx, "2024-03-01", "이배우")
	if err != nil || !removed {
		t.Fatalf("DeleteHours = %v, %v", removed, err)
	}
	all, _ := h.Hours.ListHours(ctx, "2024-03-01", "2024-03-31")
	if len(all) != 2 || all[0].Remarks != "리허설" {
		t.Fatalf("unexpected remaining rows %+v", all)
	}
}

func TestReservationRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	base := testfixtures.ReferenceTime()

	fixtures := []persistence.Reservation{
		testfixtures.NewReservation("res-0001", testfixtures.WithCustomer("김민지", "010-1111-2222"), testfixtures.CreatedAt(base)),
		testfixtures.NewReservation("res-0002", testfixtures.WithCustomer("Park 100%", "010-3333-4444"), testfixtures.CreatedAt(base.Add(time.Minute)), testfixtures.WithStatus("CONFIRMED")),
		testfixtures.NewReservation("res-0003", testfixtures.WithCustomer("이서준", "010-5555-6666"), testfixtures.CreatedAt(base.Add(2*time.Minute)), testfixtures.WithPeople(nil)),
	}
	for _, res := range fixtures {
		if err := h.Reservations.CreateReservation(ctx, res); err != nil {
			t.Fatalf("CreateReservation(%s) failed: %v", res.ID, err)
		}
	}

	t.Run("lists newest first", func(t *testing.T) {
		all, err := h.Reservations.ListReservations(ctx)
		if err != nil || len(all) != 3 || all[0].ID != "res-0003" {
			t.Fatalf("unexpected list %v (%v)", ids(all), err)
		}
		if all[0].PeopleCount != nil {
			t.Fatalf("nil people count became %v", *all[0].PeopleCount)
		}
	})

	t.Run("pages with whitelisted sort", func(t *testing.T) {
		page, total, err := h.Reservations.PageReservations(ctx, persistence.PageQuery{Page: 1, Size: 2, SortBy: "customerName", SortDir: "asc"})
		if err != nil || total != 3 {
			t.Fatalf("PageReservations total=%d err=%v", total, err)
		}
		if len(page) != 1 || page[0].ID != "res-0003" {
			t.Fatalf("unexpected second page %v", ids(page))
		}
		fallback, _, err := h.Reservations.PageReservations(ctx, persistence.PageQuery{Size: 10, SortBy: "1; DROP TABLE users"})
		if err != nil || len(fallback) != 3 || fallback[0].ID != "res-0003" {
			t.Fatalf("unknown sort key should fall back to created_at desc: %v (%v)", ids(fallback), err)
		}
	})

	t.Run("searches case-insensitively and escapes wildcards", func(t *testing.T) {
		found, err := h.Reservations.SearchReservations(ctx, persistence.ReservationFilter{CustomerName: "park"})
		if err != nil || len(found) != 1 || found[0].ID != "res-0002" {
			t.Fatalf("unexpected search result %v (%v)", ids(found), err)
		}
		found, _ = h.Reservations.SearchReservations(ctx, persistence.ReservationFilter{CustomerName: "%"})
		if len(found) != 1 {
			t.Fatalf("percent sign must match literally, got %v", ids(found))
		}
		found, _ = h.Reservations.SearchReservations(ctx, persistence.ReservationFilter{ContactInfo: "010", Status: "pending"})
		if len(found) != 2 {
			t.Fatalf("expected 2 pending matches, got %v", ids(found))
		}
	})

	t.Run("bulk updates in one transaction", func(t *testing.T) {
		status := "COMPLETED"
		highlight := "RED"
		n, err := h.Reservations.UpdateReservations(ctx, []string{"res-0001", "res-0003", "missing"}, persistence.ReservationChange{
			Status: &status, Highlight: &highlight, UpdatedBy: "boss", UpdatedAt: base.Add(time.Hour),
		})
		if err != nil || n != 2 {
			t.Fatalf("UpdateReservations = %d, %v", n, err)
		}
		completed, _ := h.Reservations.ReservationsByStatus(ctx, "COMPLETED")
		if len(completed) != 2 || completed[0].Highlight != "RED" || completed[0].UpdatedBy != "boss" {
			t.Fatalf("unexpected completed rows %+v", completed)
		}

		bad := "LOST"
		if _, err := h.Reservations.UpdateReservations(ctx, []string{"res-0002"}, persistence.ReservationChange{Status: &bad}); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("updates and deletes by id", func(t *testing.T) {
		res, err := h.Reservations.GetReservation(ctx, "res-0002")
		if err != nil {
			t.Fatalf("GetReservation failed: %v", err)
		}
		res.Notes = "창가 자리"
		if err := h.Reservations.UpdateReservation(ctx, res); err != nil {
			t.Fatalf("UpdateReservation failed: %v", err)
		}
		if err := h.Reservations.DeleteReservation(ctx, "res-0002"); err != nil {
			t.Fatalf("DeleteReservation failed: %v", err)
		}
		if err := h.Reservations.DeleteReservation(ctx, "res-0002"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestWorkLogRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	now := testfixtures.ReferenceTime()

	for i, date := range []string{"2024-03-05", "2024-02-28", "2024-03-01"} {
		log := persistence.WorkLog{ID: "log-" + date, Date: date, Manager: "박매니저", CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		if err := h.WorkLogs.CreateWorkLog(ctx, log); err != nil {
			t.Fatalf("CreateWorkLog failed: %v", err)
		}
	}

	march, err := h.WorkLogs.ListWorkLogs(ctx, "2024-03-01", "2024-03-31")
	if err != nil || len(march) != 2 || march[0].Date != "2024-03-01" {
		t.Fatalf("unexpected March logs %+v (%v)", march, err)
	}

	log := march[0]
	log.Event = "단체 관람"
	if err := h.WorkLogs.UpdateWorkLog(ctx, log); err != nil {
		t.Fatalf("UpdateWorkLog failed: %v", err)
	}
	got, err := h.WorkLogs.GetWorkLog(ctx, log.ID)
	if err != nil || got.Event != "단체 관람" {
		t.Fatalf("update not persisted: %+v (%v)", got, err)
	}

	if err := h.WorkLogs.DeleteWorkLog(ctx, log.ID); err != nil {
		t.Fatalf("DeleteWorkLog failed: %v", err)
	}
	if _, err := h.WorkLogs.GetWorkLog(ctx, log.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func ids(items []persistence.Reservation) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
