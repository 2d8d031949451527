package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/example/showflix-scheduler/internal/attendance"
	"github.com/example/showflix-scheduler/internal/calendar"
	"github.com/example/showflix-scheduler/internal/export"
	"github.com/example/showflix-scheduler/internal/timetable"
)

// HourRepository persists hour table cells keyed by (date, username).
type HourRepository interface {
	ListHours(ctx context.Context, from, to string) ([]timetable.Entry, error)
	ListHoursForUser(ctx context.Context, username, from, to string) ([]timetable.Entry, error)
	// UpsertHours writes all entries in one transaction.
	UpsertHours(ctx context.Context, entries []timetable.Entry) error
	DeleteHours(ctx context.Context, date, username string) (bool, error)
	// UpdateDailyRemarks sets the remarks of every row of date and reports how
	// many rows changed.
	UpdateDailyRemarks(ctx context.Context, date, remarks string) (int, error)
}

// ActorDirectory lists and resolves accounts for the hour table.
type ActorDirectory interface {
	UserLookup
	ListUsers(ctx context.Context) ([]User, error)
}

// HourTableService maintains the monthly performance hour table.
type HourTableService struct {
	hours  HourRepository
	users  ActorDirectory
	sorter *attendance.NameSorter
	logger *slog.Logger
}

// NewHourTableService wires the hour table service.
func NewHourTableService(hours HourRepository, users ActorDirectory) *HourTableService {
	return NewHourTableServiceWithLogger(hours, users, nil)
}

// NewHourTableServiceWithLogger wires the hour table service with a specific logger.
func NewHourTableServiceWithLogger(hours HourRepository, users ActorDirectory, logger *slog.Logger) *HourTableService {
	return &HourTableService{
		hours:  hours,
		users:  users,
		sorter: attendance.KoreanSorter(),
		logger: defaultLogger(logger),
	}
}

func (s *HourTableService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HourTableService", operation, attrs...)
}

func (s *HourTableService) ready() error {
	if s == nil {
		return fmt.Errorf("HourTableService is nil")
	}
	if s.hours == nil {
		return fmt.Errorf("hour repository not configured")
	}
	if s.users == nil {
		return fmt.Errorf("user directory not configured")
	}
	return nil
}

// Table builds the hour table of m with one column per actor.
func (s *HourTableService) Table(ctx context.Context, principal Principal, m calendar.Month) (table *timetable.Table, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "Table", "month", m.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build hour table", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	table, err = s.buildTable(ctx, m)
	return
}

func (s *HourTableService) buildTable(ctx context.Context, m calendar.Month) (*timetable.Table, error) {
	actors, err := listActors(ctx, s.users, s.sorter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	names := make([]string, 0, len(actors))
	for _, a := range actors {
		names = append(names, a.Username)
	}

	from, to := m.Range()
	entries, err := s.hours.ListHours(ctx, from, to)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return timetable.Build(m, names, entries), nil
}

// SaveEntry upserts a single cell and reports the totals the edit leaves in
// the month table. Cells of users without an actor column are stored but
// never counted, so their totals come back unchanged.
func (s *HourTableService) SaveEntry(ctx context.Context, principal Principal, input HourEntryInput) (result HourCellResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SaveEntry", "principal_id", principal.UserID, "date", input.Date, "username", input.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to save hours", "hours saved")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var entries []timetable.Entry
	if entries, err = hourEntries([]HourEntryInput{input}); err != nil {
		return
	}
	entry := entries[0]

	day, err := calendar.ParseDate(entry.Date)
	if err != nil {
		return
	}
	var table *timetable.Table
	if table, err = s.buildTable(ctx, calendar.MonthOf(day)); err != nil {
		return
	}
	if err = table.Set(entry.Date, entry.Username, input.Hours); err != nil && !errors.Is(err, timetable.ErrUnknownActor) {
		return
	}
	err = nil

	if err = s.hours.UpsertHours(ctx, entries); err != nil {
		err = mapRepoError(err)
		return
	}

	row, _ := table.Row(entry.Date)
	result = HourCellResult{
		Entry:       entry,
		RowTotal:    row.Total,
		ColumnTotal: table.ColumnTotals[entry.Username],
		GrandTotal:  table.GrandTotal,
	}
	return
}

// SaveAll upserts every cell in one transaction.
func (s *HourTableService) SaveAll(ctx context.Context, principal Principal, inputs []HourEntryInput) (saved int, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SaveAll", "principal_id", principal.UserID, "requested", len(inputs))
	defer func() {
		logOutcome(ctx, logger, err, "failed to save hour table", "hour table saved", "saved", saved)
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if len(inputs) == 0 {
		return
	}

	var entries []timetable.Entry
	if entries, err = hourEntries(inputs); err != nil {
		return
	}
	if err = s.hours.UpsertHours(ctx, entries); err != nil {
		err = mapRepoError(err)
		return
	}
	saved = len(entries)
	return
}

// DeleteEntry removes a cell; nothing removed yields ErrNotFound.
func (s *HourTableService) DeleteEntry(ctx context.Context, principal Principal, date, username string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	date = strings.TrimSpace(date)
	username = strings.TrimSpace(username)
	logger := s.loggerWith(ctx, "DeleteEntry", "principal_id", principal.UserID, "date", date, "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete hours", "hours deleted")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	checkVar(vErr, "username", username, "required")
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var removed bool
	if removed, err = s.hours.DeleteHours(ctx, date, username); err != nil {
		err = mapRepoError(err)
		return
	}
	if !removed {
		err = ErrNotFound
	}
	return
}

// UpdateDailyRemarks sets the remark shown on a day's row.
func (s *HourTableService) UpdateDailyRemarks(ctx context.Context, principal Principal, date, remarks string) (updated int, err error) {
	if err = s.ready(); err != nil {
		return
	}

	date = strings.TrimSpace(date)
	logger := s.loggerWith(ctx, "UpdateDailyRemarks", "principal_id", principal.UserID, "date", date)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update remarks", "remarks updated", "updated", updated)
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	checkVar(vErr, "date", date, "required,date")
	if err = vErr.errOrNil(); err != nil {
		return
	}

	updated, err = s.hours.UpdateDailyRemarks(ctx, date, strings.TrimSpace(remarks))
	err = mapRepoError(err)
	return
}

// UserMonthlyStats returns worked days and hours of userID in m. Users may
// read their own figures; administrators may read anyone's.
func (s *HourTableService) UserMonthlyStats(ctx context.Context, principal Principal, userID string, m calendar.Month) (timetable.Stats, error) {
	if err := s.ready(); err != nil {
		return timetable.Stats{}, err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = principal.UserID
	}
	if principal.UserID == "" || (!principal.IsAdmin && userID != principal.UserID) {
		return timetable.Stats{}, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return timetable.Stats{}, mapRepoError(err)
	}

	from, to := m.Range()
	entries, err := s.hours.ListHoursForUser(ctx, user.Username, from, to)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "UserMonthlyStats", "user_id", userID).ErrorContext(ctx, "failed to load hours", "error", err, "error_kind", ErrorKind(err))
		return timetable.Stats{}, err
	}
	return timetable.MonthlyStats(entries), nil
}

// ExportCSV writes the hour table of m to w and returns the download file name.
func (s *HourTableService) ExportCSV(ctx context.Context, principal Principal, m calendar.Month, w io.Writer) (string, error) {
	table, err := s.Table(ctx, principal, m)
	if err != nil {
		return "", err
	}
	if err := export.WriteHourTableCSV(w, table); err != nil {
		return "", err
	}
	return export.HourTableFileName(table), nil
}

// hourEntries validates inputs and converts them to storage entries.
func hourEntries(inputs []HourEntryInput) ([]timetable.Entry, error) {
	vErr := &ValidationError{}
	out := make([]timetable.Entry, 0, len(inputs))
	for _, in := range inputs {
		date := strings.TrimSpace(in.Date)
		username := strings.TrimSpace(in.Username)
		checkVar(vErr, "date", date, "required,date")
		checkVar(vErr, "username", username, "required")

		hours, ok := parseHourCell(in.Hours)
		if !ok {
			vErr.add("hours", "hours must be a number between 0 and 24")
		}
		out = append(out, timetable.Entry{
			Date:     date,
			Username: username,
			Hours:    hours,
			Remarks:  strings.TrimSpace(in.Remarks),
		})
	}
	if err := vErr.errOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseHourCell accepts blank (zero) or a finite number in [0, 24].
func parseHourCell(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 24 {
		return 0, false
	}
	return v, true
}
