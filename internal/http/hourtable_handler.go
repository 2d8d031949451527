package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/calendar"
	"github.com/example/showflix-scheduler/internal/timetable"
)

type hourTableService interface {
	Table(ctx context.Context, principal application.Principal, m calendar.Month) (*timetable.Table, error)
	SaveEntry(ctx context.Context, principal application.Principal, input application.HourEntryInput) (application.HourCellResult, error)
	SaveAll(ctx context.Context, principal application.Principal, inputs []application.HourEntryInput) (int, error)
	DeleteEntry(ctx context.Context, principal application.Principal, date, username string) error
	UpdateDailyRemarks(ctx context.Context, principal application.Principal, date, remarks string) (int, error)
	UserMonthlyStats(ctx context.Context, principal application.Principal, userID string, m calendar.Month) (timetable.Stats, error)
	ExportCSV(ctx context.Context, principal application.Principal, m calendar.Month, w io.Writer) (string, error)
}

// HourTableHandler serves the monthly actor hour table and the per-user
// work statistics derived from it.
type HourTableHandler struct {
	service   hourTableService
	responder responder
	logger    *slog.Logger
}

func NewHourTableHandler(service hourTableService, logger *slog.Logger) *HourTableHandler {
	base := defaultLogger(logger)
	return &HourTableHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *HourTableHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "HourTableHandler", operation, attrs...)
}

func (h *HourTableHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *HourTableHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, principal application.Principal, err error) {
	h.log(ctx, operation, "principal_id", principal.UserID).ErrorContext(ctx, "hour table request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *HourTableHandler) Table(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	table, err := h.service.Table(r.Context(), principal, m)
	if err != nil {
		h.fail(r.Context(), w, "Table", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toHourTableDTO(table))
}

func (h *HourTableHandler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req hourEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	cell, err := h.service.SaveEntry(r.Context(), principal, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, "Save", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, hourCellResponse{
		hourEntryDTO: hourEntryDTO{
			Date:     cell.Entry.Date,
			Username: cell.Entry.Username,
			Hours:    timetable.FormatHours(cell.Entry.Hours),
			Remarks:  cell.Entry.Remarks,
		},
		RowTotal:    timetable.FormatHours(cell.RowTotal),
		ColumnTotal: timetable.FormatHours(cell.ColumnTotal),
		GrandTotal:  timetable.FormatHours(cell.GrandTotal),
	})
}

func (h *HourTableHandler) SaveAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req []hourEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	inputs := make([]application.HourEntryInput, 0, len(req))
	for _, entry := range req {
		inputs = append(inputs, entry.toInput())
	}

	saved, err := h.service.SaveAll(r.Context(), principal, inputs)
	if err != nil {
		h.fail(r.Context(), w, "SaveAll", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: saved})
}

func (h *HourTableHandler) Delete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	query := r.URL.Query()
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEntry(r.Context(), principal, query.Get("date"), query.Get("username")); err != nil {
		h.fail(r.Context(), w, "Delete", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *HourTableHandler) UpdateDailyRemarks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req dailyRemarksRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	updated, err := h.service.UpdateDailyRemarks(r.Context(), principal, req.Date, req.Remarks)
	if err != nil {
		h.fail(r.Context(), w, "UpdateDailyRemarks", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: updated})
}

func (h *HourTableHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var buf bytes.Buffer
	filename, err := h.service.ExportCSV(r.Context(), principal, m, &buf)
	if err != nil {
		h.fail(r.Context(), w, "Export", principal, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", filename, &buf)
}

// MyStats returns the caller's own worked days and hours.
func (h *HourTableHandler) MyStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.stats(w, r, "")
}

// UserStats returns the figures of the user named in the path.
func (h *HourTableHandler) UserStats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.stats(w, r, ps.ByName("userid"))
}

func (h *HourTableHandler) stats(w http.ResponseWriter, r *http.Request, userID string) {
	if h.unavailable(w) {
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.UserMonthlyStats(r.Context(), principal, userID, m)
	if err != nil {
		h.fail(r.Context(), w, "Stats", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsResponse{
		Year:       m.Year,
		Month:      m.Number(),
		TotalDays:  stats.TotalDays,
		TotalHours: stats.TotalHours,
	})
}

type hourEntryRequest struct {
	Date     string     `json:"date"`
	Username string     `json:"username"`
	Hours    flexString `json:"hours"`
	Remarks  string     `json:"remarks"`
}

func (r hourEntryRequest) toInput() application.HourEntryInput {
	return application.HourEntryInput{
		Date:     r.Date,
		Username: r.Username,
		Hours:    strings.TrimSpace(string(r.Hours)),
		Remarks:  r.Remarks,
	}
}

type dailyRemarksRequest struct {
	Date    string `json:"date"`
	Remarks string `json:"remarks"`
}

type hourEntryDTO struct {
	Date     string `json:"date"`
	Username string `json:"username"`
	Hours    string `json:"hours"`
	Remarks  string `json:"remarks"`
}

type hourCellResponse struct {
	hourEntryDTO
	RowTotal    string `json:"rowTotal"`
	ColumnTotal string `json:"columnTotal"`
	GrandTotal  string `json:"grandTotal"`
}

type hourRowDTO struct {
	Date       string            `json:"date"`
	DayOfWeek  string            `json:"dayOfWeek"`
	ActorHours map[string]string `json:"actorHours"`
	RowTotal   string            `json:"rowTotal"`
	Remarks    string            `json:"remarks"`
}

type hourTableDTO struct {
	Year         int               `json:"year"`
	Month        int               `json:"month"`
	ActorNames   []string          `json:"actorNames"`
	Rows         []hourRowDTO      `json:"rows"`
	ColumnTotals map[string]string `json:"columnTotals"`
	GrandTotal   string            `json:"grandTotal"`
}

func toHourTableDTO(t *timetable.Table) hourTableDTO {
	rows := make([]hourRowDTO, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make(map[string]string, len(t.Actors))
		for _, actor := range t.Actors {
			cells[actor] = row.Cell(actor)
		}
		rows = append(rows, hourRowDTO{
			Date:       row.Date,
			DayOfWeek:  row.Weekday,
			ActorHours: cells,
			RowTotal:   timetable.FormatHours(row.Total),
			Remarks:    row.Remarks,
		})
	}

	totals := make(map[string]string, len(t.Actors))
	for _, actor := range t.Actors {
		totals[actor] = timetable.FormatHours(t.ColumnTotals[actor])
	}

	actors := t.Actors
	if actors == nil {
		actors = []string{}
	}
	return hourTableDTO{
		Year:         t.Month.Year,
		Month:        t.Month.Number(),
		ActorNames:   actors,
		Rows:         rows,
		ColumnTotals: totals,
		GrandTotal:   timetable.FormatHours(t.GrandTotal),
	}
}

type statsResponse struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	TotalDays  int    `json:"totalDays"`
	TotalHours string `json:"totalHours"`
}
