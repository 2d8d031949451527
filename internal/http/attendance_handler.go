package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/attendance"
	"github.com/example/showflix-scheduler/internal/calendar"
)

type attendanceService interface {
	MonthData(ctx context.Context, principal application.Principal, m calendar.Month) (application.MonthData, error)
	Calendar(ctx context.Context, principal application.Principal, m calendar.Month) (application.CalendarView, error)
	SaveSelections(ctx context.Context, principal application.Principal, selections map[string]application.DateSelection) (int, error)
	DeleteOwnSelection(ctx context.Context, principal application.Principal, date string) error
	AddUserToDate(ctx context.Context, params application.AddAttendeeParams) (attendance.Record, error)
	RemoveUserFromDate(ctx context.Context, principal application.Principal, date, userID string) error
	SaveRoles(ctx context.Context, principal application.Principal, assignments []application.AttendeeAssignment) (int, error)
	MonthlySummary(ctx context.Context, principal application.Principal, m calendar.Month) (application.MonthlySummary, error)
	Roles() []application.RoleOption
}

type userDirectory interface {
	ListDirectory(ctx context.Context, principal application.Principal) ([]application.DirectoryEntry, error)
}

// AttendanceHandler serves the calendar page: selections, attendee edits and
// the month views built from them.
type AttendanceHandler struct {
	service   attendanceService
	directory userDirectory
	responder responder
	logger    *slog.Logger
}

func NewAttendanceHandler(service attendanceService, directory userDirectory, logger *slog.Logger) *AttendanceHandler {
	base := defaultLogger(logger)
	return &AttendanceHandler{service: service, directory: directory, responder: newResponder(base), logger: base}
}

func (h *AttendanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AttendanceHandler", operation, attrs...)
}

func (h *AttendanceHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *AttendanceHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, principal application.Principal, err error) {
	h.log(ctx, operation, "principal_id", principal.UserID).ErrorContext(ctx, "attendance request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *AttendanceHandler) MonthData(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	data, err := h.service.MonthData(r.Context(), principal, m)
	if err != nil {
		h.fail(r.Context(), w, "MonthData", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthDataResponse{
		Admin: data.Admin,
		Data:  toSelectionDTOs(data.Records),
	})
}

func (h *AttendanceHandler) Calendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	view, err := h.service.Calendar(r.Context(), principal, m)
	if err != nil {
		h.fail(r.Context(), w, "Calendar", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTO(view))
}

func (h *AttendanceHandler) SaveSelections(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req map[string]selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	selections := make(map[string]application.DateSelection, len(req))
	for date, sel := range req {
		selections[date] = application.DateSelection{OpenHope: sel.OpenHope}
	}

	saved, err := h.service.SaveSelections(r.Context(), principal, selections)
	if err != nil {
		h.fail(r.Context(), w, "SaveSelections", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: saved})
}

func (h *AttendanceHandler) DeleteOwnSelection(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteOwnSelection(r.Context(), principal, date); err != nil {
		h.fail(r.Context(), w, "DeleteOwnSelection", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AttendanceHandler) AddUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req addUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, err := h.service.AddUserToDate(r.Context(), application.AddAttendeeParams{
		Principal: principal,
		Date:      req.Date,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Role:      req.Role,
	})
	if err != nil {
		h.fail(r.Context(), w, "AddUser", principal, err)
		return
	}

	h.log(r.Context(), "AddUser", "principal_id", principal.UserID, "date", record.Date, "user_id", record.UserID).InfoContext(r.Context(), "attendee added")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSelectionDTO(record))
}

func (h *AttendanceHandler) RemoveUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	query := r.URL.Query()
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.RemoveUserFromDate(r.Context(), principal, query.Get("date"), query.Get("userId")); err != nil {
		h.fail(r.Context(), w, "RemoveUser", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AttendanceHandler) SaveRoles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req []roleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	assignments := make([]application.AttendeeAssignment, 0, len(req))
	for _, u := range req {
		assignments = append(assignments, application.AttendeeAssignment{
			Date:    u.Date,
			UserID:  u.UserID,
			Role:    u.Role,
			Remarks: u.Remarks,
		})
	}

	updated, err := h.service.SaveRoles(r.Context(), principal, assignments)
	if err != nil {
		h.fail(r.Context(), w, "SaveRoles", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: updated})
}

func (h *AttendanceHandler) Roles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	roles := h.service.Roles()
	out := make([]roleOptionDTO, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleOptionDTO{Value: role.Value, Label: role.Label})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Users lists every account for the add-attendee picker.
func (h *AttendanceHandler) Users(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}
	if h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	entries, err := h.directory.ListDirectory(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, "Users", principal, err)
		return
	}

	out := make([]directoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, directoryEntryDTO{UserID: e.UserID, UserName: e.UserName})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *AttendanceHandler) MonthlySummary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	summary, err := h.service.MonthlySummary(r.Context(), principal, m)
	if err != nil {
		h.fail(r.Context(), w, "MonthlySummary", principal, err)
		return
	}
	attendees := make([]summaryAttendeeDTO, 0, len(summary.Attendees))
	for _, a := range toAttendeeDTOs(summary.Attendees) {
		dates := summary.Dates[a.UserID]
		if dates == nil {
			dates = []string{}
		}
		attendees = append(attendees, summaryAttendeeDTO{attendeeDTO: a, Dates: dates})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthlySummaryResponse{
		Year:      summary.Month.Year,
		Month:     summary.Month.Number(),
		Summary:   toSummaryDTO(summary.Summary),
		Attendees: attendees,
	})
}

type selectionRequest struct {
	OpenHope bool `json:"openHope"`
}

type addUserRequest struct {
	Date     string `json:"date"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
}

type roleUpdateRequest struct {
	Date    string `json:"date"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	Remarks string `json:"remarks"`
}

type countResponse struct {
	Count int `json:"count"`
}

type selectionDTO struct {
	Date      string `json:"date"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	OpenHope  bool   `json:"openHope"`
	Role      string `json:"role"`
	Confirmed string `json:"confirmed"`
	Remarks   string `json:"remarks"`
}

func toSelectionDTO(r attendance.Record) selectionDTO {
	return selectionDTO{
		Date:      r.Date,
		UserID:    r.UserID,
		UserName:  r.UserName,
		OpenHope:  r.OpenHope,
		Role:      r.Role,
		Confirmed: r.Confirmed,
		Remarks:   r.Remarks,
	}
}

func toSelectionDTOs(records []attendance.Record) []selectionDTO {
	out := make([]selectionDTO, 0, len(records))
	for _, r := range records {
		out = append(out, toSelectionDTO(r))
	}
	return out
}

type monthDataResponse struct {
	Admin bool           `json:"isAdmin"`
	Data  []selectionDTO `json:"data"`
}

type roleOptionDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type directoryEntryDTO struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type attendeeDTO struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Days     int    `json:"days"`
}

func toAttendeeDTOs(attendees []attendance.Attendee) []attendeeDTO {
	out := make([]attendeeDTO, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, attendeeDTO{UserID: a.UserID, UserName: a.UserName, Days: a.Days})
	}
	return out
}

type summaryDTO struct {
	UniqueUsers     int     `json:"uniqueUsers"`
	TotalSelections int     `json:"totalSelections"`
	OpenHopeCount   int     `json:"openHopeCount"`
	ConfirmedCount  int     `json:"confirmedCount"`
	AveragePerDay   float64 `json:"averagePerDay"`
}

func toSummaryDTO(s attendance.Summary) summaryDTO {
	return summaryDTO{
		UniqueUsers:     s.UniqueUsers,
		TotalSelections: s.TotalSelections,
		OpenHopeCount:   s.OpenHopeCount,
		ConfirmedCount:  s.ConfirmedCount,
		AveragePerDay:   s.AveragePerDay,
	}
}

type summaryAttendeeDTO struct {
	attendeeDTO
	Dates []string `json:"dates"`
}

type monthlySummaryResponse struct {
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	Summary   summaryDTO           `json:"summary"`
	Attendees []summaryAttendeeDTO `json:"attendees"`
}

type monthRefDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func toMonthRef(m calendar.Month) monthRefDTO {
	return monthRefDTO{Year: m.Year, Month: m.Number()}
}

type calendarCellDTO struct {
	Date           string         `json:"date"`
	Day            int            `json:"day"`
	Weekday        string         `json:"weekday"`
	IsCurrentMonth bool           `json:"isCurrentMonth"`
	IsToday        bool           `json:"isToday"`
	Records        []selectionDTO `json:"records"`
}

type calendarResponse struct {
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Prev      monthRefDTO         `json:"prev"`
	Next      monthRefDTO         `json:"next"`
	Admin     bool                `json:"isAdmin"`
	Weeks     [][]calendarCellDTO `json:"weeks"`
	Attendees []attendeeDTO       `json:"attendees"`
	Summary   summaryDTO          `json:"summary"`
}

func toCalendarDTO(view application.CalendarView) calendarResponse {
	weeks := view.Grid.Weeks()
	out := make([][]calendarCellDTO, 0, len(weeks))
	for _, week := range weeks {
		row := make([]calendarCellDTO, 0, len(week))
		for _, cell := range week {
			row = append(row, calendarCellDTO{
				Date:           cell.DateStr,
				Day:            cell.Day,
				Weekday:        calendar.KoreanWeekday(cell.Weekday),
				IsCurrentMonth: cell.IsCurrentMonth,
				IsToday:        cell.IsToday,
				Records:        toSelectionDTOs(cell.Records),
			})
		}
		out = append(out, row)
	}
	return calendarResponse{
		Year:      view.Month.Year,
		Month:     view.Month.Number(),
		Prev:      toMonthRef(view.Month.Prev()),
		Next:      toMonthRef(view.Month.Next()),
		Admin:     view.Admin,
		Weeks:     out,
		Attendees: toAttendeeDTOs(view.Attendees),
		Summary:   toSummaryDTO(view.Summary),
	}
}
