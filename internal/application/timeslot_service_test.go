package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/cache"
	"github.com/example/showflix-scheduler/internal/calendar"
)

type timeSlotRepositoryStub struct {
	slots        map[string][]TimeSlot
	confirmCalls []string
}

func (r *timeSlotRepositoryStub) ListTimeSlots(ctx context.Context, date string) ([]TimeSlot, error) {
	return append([]TimeSlot(nil), r.slots[date]...), nil
}

func (r *timeSlotRepositoryStub) ReplaceTimeSlots(ctx context.Context, date string, slots []TimeSlot) error {
	if r.slots == nil {
		r.slots = map[string][]TimeSlot{}
	}
	r.slots[date] = append([]TimeSlot(nil), slots...)
	return nil
}

func (r *timeSlotRepositoryStub) SetConfirmation(ctx context.Context, date, value string) error {
	r.confirmCalls = append(r.confirmCalls, date+"="+value)
	for i := range r.slots[date] {
		r.slots[date][i].Confirmed = value
	}
	return nil
}

func TestTimeSlotService_TimeSlots(t *testing.T) {
	t.Parallel()

	repo := &timeSlotRepositoryStub{slots: map[string][]TimeSlot{
		"2024-03-01": {{Date: "2024-03-01", TimeSlot: "18:00", Theme: "A", Performer: "김,박", Confirmed: "Y"}},
	}}
	svc := NewTimeSlotService(repo, nil)

	status, err := svc.TimeSlots(context.Background(), staffPrincipal, "2024-03-01", calendar.EveningView)
	if err != nil {
		t.Fatalf("TimeSlots: %v", err)
	}
	if len(status.Slots) != len(calendar.Slots(calendar.EveningView)) {
		t.Fatalf("expected full evening grid, got %d slots", len(status.Slots))
	}
	if !status.Confirmed {
		t.Fatal("expected confirmed day when every stored slot is Y")
	}
	for _, slot := range status.Slots {
		if slot.TimeSlot == "18:00" && slot.Theme != "A" {
			t.Fatalf("stored slot not merged: %+v", slot)
		}
	}

	empty, err := svc.TimeSlots(context.Background(), staffPrincipal, "2024-03-02", calendar.DaytimeView)
	if err != nil || empty.Confirmed || empty.Slots[0].TimeSlot != "12:00" {
		t.Fatalf("unexpected empty day %+v err=%v", empty, err)
	}
}

func TestTimeSlotService_SaveTimeSlots(t *testing.T) {
	t.Parallel()

	t.Run("normalizes performers and drops blank cells", func(t *testing.T) {
		t.Parallel()
		repo := &timeSlotRepositoryStub{}
		svc := NewTimeSlotService(repo, nil)

		status, err := svc.SaveTimeSlots(context.Background(), SaveTimeSlotsParams{
			Principal: adminPrincipal,
			Date:      "2024-03-01",
			Slots: []TimeSlotInput{
				{TimeSlot: "16:00", Theme: " 방탈출 ", Performer: " 김철수 , ,박영희 "},
				{TimeSlot: "16:30"},
			},
		})
		if err != nil {
			t.Fatalf("SaveTimeSlots: %v", err)
		}
		stored := repo.slots["2024-03-01"]
		if len(stored) != 1 || stored[0].Performer != "김철수,박영희" || stored[0].Theme != "방탈출" || stored[0].Confirmed != "N" {
			t.Fatalf("unexpected stored slots %+v", stored)
		}
		if status.Confirmed {
			t.Fatal("freshly saved slots must be unconfirmed")
		}
	})

	t.Run("rejects slots outside the grid", func(t *testing.T) {
		t.Parallel()
		svc := NewTimeSlotService(&timeSlotRepositoryStub{}, nil)
		_, err := svc.SaveTimeSlots(context.Background(), SaveTimeSlotsParams{
			Principal: adminPrincipal,
			Date:      "2024-03-01",
			Slots:     []TimeSlotInput{{TimeSlot: "09:00", Theme: "x"}},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["timeSlot"] == "" {
			t.Fatalf("expected timeSlot validation error, got %v", err)
		}
	})

	t.Run("confirmed days are locked", func(t *testing.T) {
		t.Parallel()
		repo := &timeSlotRepositoryStub{slots: map[string][]TimeSlot{
			"2024-03-01": {{TimeSlot: "16:00", Theme: "A", Confirmed: "Y"}},
		}}
		svc := NewTimeSlotService(repo, nil)
		_, err := svc.SaveTimeSlots(context.Background(), SaveTimeSlotsParams{Principal: adminPrincipal, Date: "2024-03-01"})
		if !errors.Is(err, ErrScheduleConfirmed) {
			t.Fatalf("expected ErrScheduleConfirmed, got %v", err)
		}
	})

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc := NewTimeSlotService(&timeSlotRepositoryStub{}, nil)
		_, err := svc.SaveTimeSlots(context.Background(), SaveTimeSlotsParams{Principal: staffPrincipal, Date: "2024-03-01"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestTimeSlotService_ConfirmSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &timeSlotRepositoryStub{}
	store := cache.NewMemory(time.Minute, 10, nil)
	_ = store.Set(ctx, "selections:2024-03", []byte("[]"))
	svc := NewTimeSlotService(repo, store)

	if err := svc.ConfirmSchedule(ctx, adminPrincipal, "2024-03-01", "maybe"); err == nil {
		t.Fatal("expected invalid value to be rejected")
	}
	if err := svc.ConfirmSchedule(ctx, adminPrincipal, "2024-03-01", "y"); err != nil {
		t.Fatalf("ConfirmSchedule: %v", err)
	}
	if len(repo.confirmCalls) != 1 || repo.confirmCalls[0] != "2024-03-01=Y" {
		t.Fatalf("unexpected confirm calls %v", repo.confirmCalls)
	}
	if store.Len() != 0 {
		t.Fatal("expected confirmation to invalidate the month cache")
	}
}
