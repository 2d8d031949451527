package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/calendar"
)

type timeSlotService interface {
	TimeSlots(ctx context.Context, principal application.Principal, date string, view calendar.SlotView) (application.DayStatus, error)
	SaveTimeSlots(ctx context.Context, params application.SaveTimeSlotsParams) (application.DayStatus, error)
	ConfirmSchedule(ctx context.Context, principal application.Principal, date, value string) error
}

type TimeSlotHandler struct {
	service   timeSlotService
	responder responder
	logger    *slog.Logger
}

func NewTimeSlotHandler(service timeSlotService, logger *slog.Logger) *TimeSlotHandler {
	base := defaultLogger(logger)
	return &TimeSlotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimeSlotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimeSlotHandler", operation, attrs...)
}

func (h *TimeSlotHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	date := strings.TrimSpace(query.Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	status, err := h.service.TimeSlots(r.Context(), principal, date, calendar.ParseSlotView(query.Get("view")))
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "date", date).ErrorContext(r.Context(), "failed to load time slots", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayStatusDTO(status))
}

func (h *TimeSlotHandler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req saveTimeSlotsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	slots := make([]application.TimeSlotInput, 0, len(req.Slots))
	for _, s := range req.Slots {
		slots = append(slots, application.TimeSlotInput{TimeSlot: s.TimeSlot, Theme: s.Theme, Performer: s.Performer})
	}

	logger := h.log(r.Context(), "Save", "principal_id", principal.UserID, "date", req.Date)
	status, err := h.service.SaveTimeSlots(r.Context(), application.SaveTimeSlotsParams{
		Principal: principal,
		Date:      req.Date,
		View:      calendar.ParseSlotView(req.View),
		Slots:     slots,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save time slots", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "time slots saved", "count", len(status.Slots))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayStatusDTO(status))
}

func (h *TimeSlotHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Confirm", "principal_id", principal.UserID, "date", req.Date, "confirmed", req.Confirmed)
	if err := h.service.ConfirmSchedule(r.Context(), principal, req.Date, req.Confirmed); err != nil {
		logger.ErrorContext(r.Context(), "failed to change confirmation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "confirmation changed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type slotRequest struct {
	TimeSlot  string `json:"timeSlot"`
	Theme     string `json:"theme"`
	Performer string `json:"performer"`
}

type saveTimeSlotsRequest struct {
	Date  string        `json:"date"`
	View  string        `json:"view"`
	Slots []slotRequest `json:"slots"`
}

type confirmRequest struct {
	Date      string `json:"date"`
	Confirmed string `json:"confirmed"`
}

type timeSlotDTO struct {
	TimeSlot  string `json:"timeSlot"`
	Theme     string `json:"theme"`
	Performer string `json:"performer"`
	Confirmed string `json:"confirmed"`
}

type dayStatusDTO struct {
	Date      string        `json:"date"`
	Confirmed bool          `json:"confirmed"`
	Slots     []timeSlotDTO `json:"slots"`
}

func toDayStatusDTO(status application.DayStatus) dayStatusDTO {
	slots := make([]timeSlotDTO, 0, len(status.Slots))
	for _, s := range status.Slots {
		slots = append(slots, timeSlotDTO{TimeSlot: s.TimeSlot, Theme: s.Theme, Performer: s.Performer, Confirmed: s.Confirmed})
	}
	return dayStatusDTO{Date: status.Date, Confirmed: status.Confirmed, Slots: slots}
}
