package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/attendance"
	"github.com/example/showflix-scheduler/internal/cache"
	"github.com/example/showflix-scheduler/internal/calendar"
)

// SelectionRepository persists attendance records keyed by (date, userId).
type SelectionRepository interface {
	ListSelections(ctx context.Context, from, to string) ([]attendance.Record, error)
	UpsertSelections(ctx context.Context, records []attendance.Record) error
	DeleteSelection(ctx context.Context, date, userID string) (bool, error)
	UpdateAssignments(ctx context.Context, assignments []AttendeeAssignment) (int, error)
	ConfirmedDates(ctx context.Context, dates []string) (map[string]bool, error)
}

// UserLookup resolves a single account.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (User, error)
}

// MonthData is the raw month payload of the calendar page.
type MonthData struct {
	Admin   bool
	Records []attendance.Record
}

// CalendarView is the server-built month grid with its side panels.
type CalendarView struct {
	Admin     bool
	Month     calendar.Month
	Grid      calendar.Grid[attendance.Record]
	Attendees []attendance.Attendee
	Summary   attendance.Summary
}

// MonthlySummary is the administrator dashboard of a month. Dates lists the
// selected dates of each attendee keyed by user id.
type MonthlySummary struct {
	Month     calendar.Month
	Summary   attendance.Summary
	Attendees []attendance.Attendee
	Dates     map[string][]string
}

// AddAttendeeParams adds one user to one date.
type AddAttendeeParams struct {
	Principal Principal
	Date      string
	UserID    string
	UserName  string
	Role      string
}

// AttendanceService manages staff availability selections and attendee assignments.
type AttendanceService struct {
	selections SelectionRepository
	users      UserLookup
	months     cache.JSON[[]attendance.Record]
	sorter     *attendance.NameSorter
	now        func() time.Time
	logger     *slog.Logger
}

// NewAttendanceService wires the attendance service. store may be nil to disable caching.
func NewAttendanceService(selections SelectionRepository, users UserLookup, store cache.Store, now func() time.Time) *AttendanceService {
	return NewAttendanceServiceWithLogger(selections, users, store, now, nil)
}

// NewAttendanceServiceWithLogger wires the attendance service with a specific logger.
func NewAttendanceServiceWithLogger(selections SelectionRepository, users UserLookup, store cache.Store, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		selections: selections,
		users:      users,
		months:     cache.NewJSON[[]attendance.Record](store),
		sorter:     attendance.KoreanSorter(),
		now:        now,
		logger:     defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

func (s *AttendanceService) ready() error {
	if s == nil {
		return fmt.Errorf("AttendanceService is nil")
	}
	if s.selections == nil {
		return fmt.Errorf("selection repository not configured")
	}
	return nil
}

func monthCacheKey(m calendar.Month) string {
	return "selections:" + m.String()
}

// monthRecords loads a month through the cache. Cache failures fall back to storage.
func (s *AttendanceService) monthRecords(ctx context.Context, logger *slog.Logger, m calendar.Month) ([]attendance.Record, error) {
	key := monthCacheKey(m)
	gen, genErr := s.months.Generation(ctx)
	if genErr != nil {
		logger.WarnContext(ctx, "month cache generation read failed", "error", genErr)
	}
	cached, ok, err := s.months.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "month cache read failed", "error", err)
	}
	if ok {
		return cached, nil
	}

	from, to := m.Range()
	records, err := s.selections.ListSelections(ctx, from, to)
	if err != nil {
		return nil, mapRepoError(err)
	}
	records = attendance.Dedupe(records)
	if genErr != nil {
		return records, nil
	}
	// A write committed during the read has bumped the generation; SetAt drops
	// the snapshot in that case.
	if err := s.months.SetAt(ctx, gen, key, records); err != nil {
		logger.WarnContext(ctx, "month cache write failed", "error", err)
	}
	return records, nil
}

func (s *AttendanceService) invalidate(ctx context.Context, logger *slog.Logger) {
	if err := s.months.Invalidate(ctx); err != nil {
		logger.WarnContext(ctx, "month cache invalidation failed", "error", err)
	}
}

// MonthData returns the records of a month visible to the principal.
func (s *AttendanceService) MonthData(ctx context.Context, principal Principal, m calendar.Month) (data MonthData, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "MonthData", "principal_id", principal.UserID, "month", m.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load month", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(data.Records)).DebugContext(ctx, "month loaded")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	var records []attendance.Record
	if records, err = s.monthRecords(ctx, logger, m); err != nil {
		return
	}
	data = MonthData{
		Admin:   principal.IsAdmin,
		Records: attendance.VisibleTo(records, principal.UserID, principal.IsAdmin),
	}
	return
}

// Calendar builds the month grid for the principal, marking today's cell.
func (s *AttendanceService) Calendar(ctx context.Context, principal Principal, m calendar.Month) (CalendarView, error) {
	data, err := s.MonthData(ctx, principal, m)
	if err != nil {
		return CalendarView{}, err
	}

	grid := calendar.BuildGrid(m, s.now(), attendance.GroupByDate(data.Records))
	return CalendarView{
		Admin:     data.Admin,
		Month:     m,
		Grid:      grid,
		Attendees: attendance.UniqueAttendees(data.Records, s.sorter),
		Summary:   attendance.Summarize(data.Records, grid.CurrentMonthDays()),
	}, nil
}

// ensureOpen fails with ErrScheduleConfirmed when any of dates is confirmed.
func (s *AttendanceService) ensureOpen(ctx context.Context, dates []string) error {
	if len(dates) == 0 {
		return nil
	}
	confirmed, err := s.selections.ConfirmedDates(ctx, dates)
	if err != nil {
		return mapRepoError(err)
	}
	for _, d := range dates {
		if confirmed[d] {
			return fmt.Errorf("%s: %w", d, ErrScheduleConfirmed)
		}
	}
	return nil
}

// SaveSelections stores the caller's availability for each date. Saved rows
// are unconfirmed and carry no role.
func (s *AttendanceService) SaveSelections(ctx context.Context, principal Principal, selections map[string]DateSelection) (saved int, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SaveSelections", "principal_id", principal.UserID, "requested", len(selections))
	defer func() {
		logOutcome(ctx, logger, err, "failed to save selections", "selections saved", "saved", saved)
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if len(selections) == 0 {
		return
	}

	dates := make([]string, 0, len(selections))
	vErr := &ValidationError{}
	for date := range selections {
		if !calendar.ValidDate(date) {
			vErr.add("date", validationMessage("date", "date"))
			continue
		}
		dates = append(dates, date)
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}
	sort.Strings(dates)

	if err = s.ensureOpen(ctx, dates); err != nil {
		return
	}

	records := make([]attendance.Record, 0, len(dates))
	for _, date := range dates {
		records = append(records, attendance.Record{
			Date:      date,
			UserID:    principal.UserID,
			UserName:  principal.Username,
			Confirmed: "N",
			OpenHope:  selections[date].OpenHope,
		})
	}
	if err = s.selections.UpsertSelections(ctx, records); err != nil {
		err = mapRepoError(err)
		return
	}
	s.invalidate(ctx, logger)
	saved = len(records)
	return
}

// DeleteOwnSelection removes the caller's record for date.
func (s *AttendanceService) DeleteOwnSelection(ctx context.Context, principal Principal, date string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteOwnSelection", "principal_id", principal.UserID, "date", date)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete selection", "selection deleted")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	err = s.removeSelection(ctx, logger, date, principal.UserID)
	return
}

// AddUserToDate assigns a user to a date for administrators. A blank name is
// filled from the account.
func (s *AttendanceService) AddUserToDate(ctx context.Context, params AddAttendeeParams) (record attendance.Record, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date := strings.TrimSpace(params.Date)
	userID := strings.TrimSpace(params.UserID)
	logger := s.loggerWith(ctx, "AddUserToDate", "principal_id", params.Principal.UserID, "date", date, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to add attendee", "attendee added")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	role := strings.ToUpper(strings.TrimSpace(params.Role))
	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	checkVar(vErr, "userId", userID, "required")
	checkVar(vErr, "role", role, "omitempty,role")
	if err = vErr.errOrNil(); err != nil {
		return
	}

	name := strings.TrimSpace(params.UserName)
	if name == "" && s.users != nil {
		var user User
		if user, err = s.users.GetUser(ctx, userID); err != nil {
			err = mapRepoError(err)
			return
		}
		name = user.Username
	}

	if err = s.ensureOpen(ctx, []string{date}); err != nil {
		return
	}

	record = attendance.Record{
		Date:      date,
		UserID:    userID,
		UserName:  name,
		Role:      role,
		Confirmed: "N",
	}
	if err = s.selections.UpsertSelections(ctx, []attendance.Record{record}); err != nil {
		err = mapRepoError(err)
		return
	}
	s.invalidate(ctx, logger)
	return
}

// RemoveUserFromDate removes a user's record from a date for administrators.
func (s *AttendanceService) RemoveUserFromDate(ctx context.Context, principal Principal, date, userID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RemoveUserFromDate", "principal_id", principal.UserID, "date", date, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to remove attendee", "attendee removed")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	err = s.removeSelection(ctx, logger, strings.TrimSpace(date), strings.TrimSpace(userID))
	return
}

func (s *AttendanceService) removeSelection(ctx context.Context, logger *slog.Logger, date, userID string) error {
	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	checkVar(vErr, "userId", userID, "required")
	if err := vErr.errOrNil(); err != nil {
		return err
	}

	if err := s.ensureOpen(ctx, []string{date}); err != nil {
		return err
	}

	removed, err := s.selections.DeleteSelection(ctx, date, userID)
	if err != nil {
		return mapRepoError(err)
	}
	if !removed {
		return ErrNotFound
	}
	s.invalidate(ctx, logger)
	return nil
}

// SaveRoles updates roles and remarks of existing attendees. Confirmation
// does not block role edits.
func (s *AttendanceService) SaveRoles(ctx context.Context, principal Principal, assignments []AttendeeAssignment) (updated int, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SaveRoles", "principal_id", principal.UserID, "requested", len(assignments))
	defer func() {
		logOutcome(ctx, logger, err, "failed to save roles", "roles saved", "updated", updated)
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if len(assignments) == 0 {
		return
	}

	normalized := make([]AttendeeAssignment, 0, len(assignments))
	vErr := &ValidationError{}
	for _, a := range assignments {
		a.Date = strings.TrimSpace(a.Date)
		a.UserID = strings.TrimSpace(a.UserID)
		a.Role = strings.ToUpper(strings.TrimSpace(a.Role))
		a.Remarks = strings.TrimSpace(a.Remarks)
		checkVar(vErr, "date", a.Date, "required,date")
		checkVar(vErr, "userId", a.UserID, "required")
		checkVar(vErr, "role", a.Role, "omitempty,role")
		normalized = append(normalized, a)
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	if updated, err = s.selections.UpdateAssignments(ctx, normalized); err != nil {
		err = mapRepoError(err)
		return
	}
	s.invalidate(ctx, logger)
	return
}

// MonthlySummary returns dashboard figures for administrators.
func (s *AttendanceService) MonthlySummary(ctx context.Context, principal Principal, m calendar.Month) (MonthlySummary, error) {
	if err := s.ready(); err != nil {
		return MonthlySummary{}, err
	}
	if !principal.IsAdmin {
		return MonthlySummary{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "MonthlySummary", "principal_id", principal.UserID, "month", m.String())
	records, err := s.monthRecords(ctx, logger, m)
	if err != nil {
		logger.ErrorContext(ctx, "failed to summarise month", "error", err, "error_kind", ErrorKind(err))
		return MonthlySummary{}, err
	}
	dates := make(map[string][]string)
	for userID, own := range attendance.GroupByUser(records) {
		for _, r := range own {
			dates[userID] = append(dates[userID], r.Date)
		}
		sort.Strings(dates[userID])
	}
	return MonthlySummary{
		Month:     m,
		Summary:   attendance.Summarize(records, m.DaysIn()),
		Attendees: attendance.UniqueAttendees(records, s.sorter),
		Dates:     dates,
	}, nil
}

// Roles returns the role catalogue.
func (s *AttendanceService) Roles() []RoleOption {
	return Roles()
}
