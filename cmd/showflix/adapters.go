package main

import (
	"context"
	"time"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/attendance"
	"github.com/example/showflix-scheduler/internal/persistence"
	"github.com/example/showflix-scheduler/internal/timetable"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	record := toPersistenceUser(user)
	record.PasswordHash = passwordHash
	if err := a.repo.CreateUser(ctx, record); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.UserID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, userID string) (application.User, error) {
	record, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(record), nil
}

func (a *userRepositoryAdapter) GetUserCredentials(ctx context.Context, userID string) (application.UserCredentials, error) {
	record, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{User: toApplicationUser(record), PasswordHash: record.PasswordHash}, nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.UserID)
}

func (a *userRepositoryAdapter) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	return a.repo.UpdatePassword(ctx, userID, passwordHash, updatedAt)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, userID string) error {
	return a.repo.DeleteUser(ctx, userID)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	records, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(records))
	for _, record := range records {
		users = append(users, toApplicationUser(record))
	}
	return users, nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, persistence.Session(session))
	return application.Session(stored), err
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, tokenHash string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, tokenHash)
	return application.Session(stored), err
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, persistence.Session(session))
	return application.Session(stored), err
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, tokenHash, revokedAt)
	return application.Session(stored), err
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type selectionRepositoryAdapter struct {
	repo persistence.SelectionRepository
}

func newSelectionRepositoryAdapter(repo persistence.SelectionRepository) *selectionRepositoryAdapter {
	return &selectionRepositoryAdapter{repo: repo}
}

func (a *selectionRepositoryAdapter) ListSelections(ctx context.Context, from, to string) ([]attendance.Record, error) {
	rows, err := a.repo.ListSelections(ctx, from, to)
	if err != nil {
		return nil, err
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, attendance.Record{
			Date:      row.Date,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Role:      row.Role,
			Remarks:   row.Remarks,
			Confirmed: row.Confirmed,
			OpenHope:  row.OpenHope,
		})
	}
	return records, nil
}

func (a *selectionRepositoryAdapter) UpsertSelections(ctx context.Context, records []attendance.Record) error {
	rows := make([]persistence.Selection, 0, len(records))
	for _, r := range records {
		rows = append(rows, persistence.Selection{
			Date:      r.Date,
			UserID:    r.UserID,
			UserName:  r.UserName,
			OpenHope:  r.OpenHope,
			Role:      r.Role,
			Remarks:   r.Remarks,
			Confirmed: r.Confirmed,
		})
	}
	return a.repo.UpsertSelections(ctx, rows)
}

func (a *selectionRepositoryAdapter) DeleteSelection(ctx context.Context, date, userID string) (bool, error) {
	return a.repo.DeleteSelection(ctx, date, userID)
}

func (a *selectionRepositoryAdapter) UpdateAssignments(ctx context.Context, assignments []application.AttendeeAssignment) (int, error) {
	rows := make([]persistence.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		rows = append(rows, persistence.Assignment(assignment))
	}
	return a.repo.UpdateAssignments(ctx, rows)
}

func (a *selectionRepositoryAdapter) ConfirmedDates(ctx context.Context, dates []string) (map[string]bool, error) {
	return a.repo.ConfirmedDates(ctx, dates)
}

type timeSlotRepositoryAdapter struct {
	repo persistence.TimeSlotRepository
}

func newTimeSlotRepositoryAdapter(repo persistence.TimeSlotRepository) *timeSlotRepositoryAdapter {
	return &timeSlotRepositoryAdapter{repo: repo}
}

func (a *timeSlotRepositoryAdapter) ListTimeSlots(ctx context.Context, date string) ([]application.TimeSlot, error) {
	rows, err := a.repo.ListTimeSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	slots := make([]application.TimeSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, application.TimeSlot(row))
	}
	return slots, nil
}

func (a *timeSlotRepositoryAdapter) ReplaceTimeSlots(ctx context.Context, date string, slots []application.TimeSlot) error {
	rows := make([]persistence.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, persistence.TimeSlot(slot))
	}
	return a.repo.ReplaceTimeSlots(ctx, date, rows)
}

func (a *timeSlotRepositoryAdapter) SetConfirmation(ctx context.Context, date, value string) error {
	return a.repo.SetConfirmation(ctx, date, value)
}

type noteRepositoryAdapter struct {
	repo persistence.NoteRepository
}

func newNoteRepositoryAdapter(repo persistence.NoteRepository) *noteRepositoryAdapter {
	return &noteRepositoryAdapter{repo: repo}
}

func (a *noteRepositoryAdapter) GetNote(ctx context.Context, id string) (application.AdminNote, error) {
	note, err := a.repo.GetNote(ctx, id)
	return application.AdminNote(note), err
}

func (a *noteRepositoryAdapter) SaveNote(ctx context.Context, note application.AdminNote) (application.AdminNote, error) {
	saved, err := a.repo.SaveNote(ctx, persistence.Note(note))
	return application.AdminNote(saved), err
}

type hourRepositoryAdapter struct {
	repo persistence.HourRepository
}

func newHourRepositoryAdapter(repo persistence.HourRepository) *hourRepositoryAdapter {
	return &hourRepositoryAdapter{repo: repo}
}

func (a *hourRepositoryAdapter) ListHours(ctx context.Context, from, to string) ([]timetable.Entry, error) {
	rows, err := a.repo.ListHours(ctx, from, to)
	return toTimetableEntries(rows), err
}

func (a *hourRepositoryAdapter) ListHoursForUser(ctx context.Context, username, from, to string) ([]timetable.Entry, error) {
	rows, err := a.repo.ListHoursForUser(ctx, username, from, to)
	return toTimetableEntries(rows), err
}

func (a *hourRepositoryAdapter) UpsertHours(ctx context.Context, entries []timetable.Entry) error {
	rows := make([]persistence.HourEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, persistence.HourEntry(entry))
	}
	return a.repo.UpsertHours(ctx, rows)
}

func (a *hourRepositoryAdapter) DeleteHours(ctx context.Context, date, username string) (bool, error) {
	return a.repo.DeleteHours(ctx, date, username)
}

func (a *hourRepositoryAdapter) UpdateDailyRemarks(ctx context.Context, date, remarks string) (int, error) {
	return a.repo.UpdateDailyRemarks(ctx, date, remarks)
}

func toTimetableEntries(rows []persistence.HourEntry) []timetable.Entry {
	if rows == nil {
		return nil
	}
	entries := make([]timetable.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, timetable.Entry(row))
	}
	return entries
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context) ([]application.Reservation, error) {
	rows, err := a.repo.ListReservations(ctx)
	return toApplicationReservations(rows), err
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	row, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(row), nil
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a *reservationRepositoryAdapter) PageReservations(ctx context.Context, page application.PageRequest) ([]application.Reservation, int, error) {
	rows, total, err := a.repo.PageReservations(ctx, persistence.PageQuery(page))
	return toApplicationReservations(rows), total, err
}

func (a *reservationRepositoryAdapter) SearchReservations(ctx context.Context, criteria application.ReservationSearch) ([]application.Reservation, error) {
	rows, err := a.repo.SearchReservations(ctx, persistence.ReservationFilter(criteria))
	return toApplicationReservations(rows), err
}

func (a *reservationRepositoryAdapter) ReservationsByStatus(ctx context.Context, status application.ReservationStatus) ([]application.Reservation, error) {
	rows, err := a.repo.ReservationsByStatus(ctx, string(status))
	return toApplicationReservations(rows), err
}

func (a *reservationRepositoryAdapter) UpdateReservations(ctx context.Context, ids []string, status *application.ReservationStatus, highlight *application.HighlightType, updatedBy string, updatedAt time.Time) (int, error) {
	change := persistence.ReservationChange{UpdatedBy: updatedBy, UpdatedAt: updatedAt}
	if status != nil {
		value := string(*status)
		change.Status = &value
	}
	if highlight != nil {
		value := string(*highlight)
		change.Highlight = &value
	}
	return a.repo.UpdateReservations(ctx, ids, change)
}

type workLogRepositoryAdapter struct {
	repo persistence.WorkLogRepository
}

func newWorkLogRepositoryAdapter(repo persistence.WorkLogRepository) *workLogRepositoryAdapter {
	return &workLogRepositoryAdapter{repo: repo}
}

func (a *workLogRepositoryAdapter) ListWorkLogs(ctx context.Context, from, to string) ([]application.WorkLog, error) {
	rows, err := a.repo.ListWorkLogs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	logs := make([]application.WorkLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, application.WorkLog(row))
	}
	return logs, nil
}

func (a *workLogRepositoryAdapter) GetWorkLog(ctx context.Context, id string) (application.WorkLog, error) {
	row, err := a.repo.GetWorkLog(ctx, id)
	return application.WorkLog(row), err
}

func (a *workLogRepositoryAdapter) CreateWorkLog(ctx context.Context, log application.WorkLog) (application.WorkLog, error) {
	if err := a.repo.CreateWorkLog(ctx, persistence.WorkLog(log)); err != nil {
		return application.WorkLog{}, err
	}
	return a.GetWorkLog(ctx, log.ID)
}

func (a *workLogRepositoryAdapter) UpdateWorkLog(ctx context.Context, log application.WorkLog) (application.WorkLog, error) {
	if err := a.repo.UpdateWorkLog(ctx, persistence.WorkLog(log)); err != nil {
		return application.WorkLog{}, err
	}
	return a.GetWorkLog(ctx, log.ID)
}

func (a *workLogRepositoryAdapter) DeleteWorkLog(ctx context.Context, id string) error {
	return a.repo.DeleteWorkLog(ctx, id)
}

func toApplicationUser(user persistence.User) application.User {
	accountType, ok := application.ParseAccountType(user.AccountType)
	if !ok {
		accountType = application.AccountTypeActor
	}
	return application.User{
		UserID:      user.UserID,
		Username:    user.Username,
		PhoneNumber: user.PhoneNumber,
		AccountType: accountType,
		Role:        user.Role,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		UserID:      user.UserID,
		Username:    user.Username,
		PhoneNumber: user.PhoneNumber,
		AccountType: string(user.AccountType),
		Role:        user.Role,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationReservations(rows []persistence.Reservation) []application.Reservation {
	if rows == nil {
		return nil
	}
	out := make([]application.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toApplicationReservation(row))
	}
	return out
}

func toApplicationReservation(row persistence.Reservation) application.Reservation {
	status, ok := application.ParseReservationStatus(row.Status)
	if !ok {
		status = application.ReservationPending
	}
	highlight, ok := application.ParseHighlightType(row.Highlight)
	if !ok {
		highlight = application.HighlightNone
	}
	return application.Reservation{
		ID:              row.ID,
		Date:            row.Date,
		Time:            row.Time,
		SpecialRemarks:  row.SpecialRemarks,
		CustomerName:    row.CustomerName,
		PeopleCount:     row.PeopleCount,
		PaymentStatus:   row.PaymentStatus,
		ContactInfo:     row.ContactInfo,
		Notes:           row.Notes,
		Status:          status,
		Highlight:       highlight,
		ExpectedRevenue: row.ExpectedRevenue,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		CreatedBy:       row.CreatedBy,
		UpdatedBy:       row.UpdatedBy,
	}
}

func toPersistenceReservation(r application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:              r.ID,
		Date:            r.Date,
		Time:            r.Time,
		SpecialRemarks:  r.SpecialRemarks,
		CustomerName:    r.CustomerName,
		PeopleCount:     r.PeopleCount,
		PaymentStatus:   r.PaymentStatus,
		ContactInfo:     r.ContactInfo,
		Notes:           r.Notes,
		Status:          string(r.Status),
		Highlight:       string(r.Highlight),
		ExpectedRevenue: r.ExpectedRevenue,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		CreatedBy:       r.CreatedBy,
		UpdatedBy:       r.UpdatedBy,
	}
}
