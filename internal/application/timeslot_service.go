package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/showflix-scheduler/internal/cache"
	"github.com/example/showflix-scheduler/internal/calendar"
)

// TimeSlotRepository persists the per-date performance grid.
type TimeSlotRepository interface {
	ListTimeSlots(ctx context.Context, date string) ([]TimeSlot, error)
	// ReplaceTimeSlots deletes every slot of date and inserts slots in one transaction.
	ReplaceTimeSlots(ctx context.Context, date string, slots []TimeSlot) error
	// SetConfirmation sets the confirmed flag of the date's slots and attendance
	// records together.
	SetConfirmation(ctx context.Context, date, value string) error
}

// TimeSlotInput is one submitted grid cell.
type TimeSlotInput struct {
	TimeSlot  string
	Theme     string
	Performer string
}

// SaveTimeSlotsParams replaces the grid of one date.
type SaveTimeSlotsParams struct {
	Principal Principal
	Date      string
	View      calendar.SlotView
	Slots     []TimeSlotInput
}

// TimeSlotService manages the theme and performer grid of each date and its
// confirmation state.
type TimeSlotService struct {
	slots  TimeSlotRepository
	cache  cache.Store
	logger *slog.Logger
}

// NewTimeSlotService wires the time-slot service. store is the cache shared
// with the attendance service and may be nil.
func NewTimeSlotService(slots TimeSlotRepository, store cache.Store) *TimeSlotService {
	return NewTimeSlotServiceWithLogger(slots, store, nil)
}

// NewTimeSlotServiceWithLogger wires the time-slot service with a specific logger.
func NewTimeSlotServiceWithLogger(slots TimeSlotRepository, store cache.Store, logger *slog.Logger) *TimeSlotService {
	return &TimeSlotService{
		slots:  slots,
		cache:  store,
		logger: defaultLogger(logger),
	}
}

func (s *TimeSlotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimeSlotService", operation, attrs...)
}

func (s *TimeSlotService) ready() error {
	if s == nil {
		return fmt.Errorf("TimeSlotService is nil")
	}
	if s.slots == nil {
		return fmt.Errorf("time slot repository not configured")
	}
	return nil
}

// TimeSlots returns the full grid of view for date with stored cells filled in.
func (s *TimeSlotService) TimeSlots(ctx context.Context, principal Principal, date string, view calendar.SlotView) (status DayStatus, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	date = strings.TrimSpace(date)
	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var stored []TimeSlot
	if stored, err = s.slots.ListTimeSlots(ctx, date); err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "TimeSlots", "date", date).ErrorContext(ctx, "failed to load time slots", "error", err, "error_kind", ErrorKind(err))
		return
	}
	status = buildDayStatus(date, view, stored)
	return
}

// SaveTimeSlots replaces the grid of a date for administrators. Blank cells
// are dropped and every saved cell starts unconfirmed.
func (s *TimeSlotService) SaveTimeSlots(ctx context.Context, params SaveTimeSlotsParams) (status DayStatus, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date := strings.TrimSpace(params.Date)
	logger := s.loggerWith(ctx, "SaveTimeSlots", "principal_id", params.Principal.UserID, "date", date, "requested", len(params.Slots))
	defer func() {
		logOutcome(ctx, logger, err, "failed to save time slots", "time slots saved", "stored", len(status.Slots))
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	view := params.View
	if view == "" {
		view = calendar.EveningView
	}

	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	seen := make(map[string]struct{}, len(params.Slots))
	rows := make([]TimeSlot, 0, len(params.Slots))
	for _, in := range params.Slots {
		slot := strings.TrimSpace(in.TimeSlot)
		if !calendar.ValidSlot(view, slot) {
			vErr.add("timeSlot", "time slot is invalid")
			continue
		}
		if _, dup := seen[slot]; dup {
			vErr.add("timeSlot", "time slot is duplicated")
			continue
		}
		seen[slot] = struct{}{}

		theme := strings.TrimSpace(in.Theme)
		performer := normalizePerformers(in.Performer)
		if theme == "" && performer == "" {
			continue
		}
		rows = append(rows, TimeSlot{Date: date, TimeSlot: slot, Theme: theme, Performer: performer, Confirmed: "N"})
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var stored []TimeSlot
	if stored, err = s.slots.ListTimeSlots(ctx, date); err != nil {
		err = mapRepoError(err)
		return
	}
	if slotsConfirmed(stored) {
		err = ErrScheduleConfirmed
		return
	}

	if err = s.slots.ReplaceTimeSlots(ctx, date, rows); err != nil {
		err = mapRepoError(err)
		return
	}
	status = buildDayStatus(date, view, rows)
	return
}

// ConfirmSchedule locks ("Y") or unlocks ("N") a date for administrators.
func (s *TimeSlotService) ConfirmSchedule(ctx context.Context, principal Principal, date, value string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	date = strings.TrimSpace(date)
	value = strings.ToUpper(strings.TrimSpace(value))
	logger := s.loggerWith(ctx, "ConfirmSchedule", "principal_id", principal.UserID, "date", date, "confirmed", value)
	defer func() {
		logOutcome(ctx, logger, err, "failed to change confirmation", "confirmation changed")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	if value != "Y" && value != "N" {
		vErr.add("confirmed", "confirmed must be Y or N")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	if err = s.slots.SetConfirmation(ctx, date, value); err != nil {
		err = mapRepoError(err)
		return
	}
	if s.cache != nil {
		if cerr := s.cache.Invalidate(ctx); cerr != nil {
			logger.WarnContext(ctx, "month cache invalidation failed", "error", cerr)
		}
	}
	return
}

// buildDayStatus lays stored cells over the fixed grid of view. Stored cells
// outside the grid are appended so they stay visible.
func buildDayStatus(date string, view calendar.SlotView, stored []TimeSlot) DayStatus {
	byTime := make(map[string]TimeSlot, len(stored))
	for _, slot := range stored {
		byTime[slot.TimeSlot] = slot
	}

	grid := calendar.Slots(view)
	out := make([]TimeSlot, 0, len(grid))
	for _, label := range grid {
		if slot, ok := byTime[label]; ok {
			out = append(out, slot)
			delete(byTime, label)
			continue
		}
		out = append(out, TimeSlot{Date: date, TimeSlot: label, Confirmed: "N"})
	}
	for _, slot := range stored {
		if _, ok := byTime[slot.TimeSlot]; ok {
			out = append(out, slot)
		}
	}

	return DayStatus{Date: date, Confirmed: slotsConfirmed(stored), Slots: out}
}

// slotsConfirmed reports whether at least one slot is stored and all are "Y".
func slotsConfirmed(stored []TimeSlot) bool {
	if len(stored) == 0 {
		return false
	}
	for _, slot := range stored {
		if !strings.EqualFold(slot.Confirmed, "Y") {
			return false
		}
	}
	return true
}

// normalizePerformers trims each comma separated name and drops empty ones.
func normalizePerformers(raw string) string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}
