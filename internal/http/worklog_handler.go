package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
	"github.com/example/showflix-scheduler/internal/calendar"
)

type workLogService interface {
	ListByMonth(ctx context.Context, principal application.Principal, m calendar.Month) ([]application.WorkLog, error)
	Create(ctx context.Context, principal application.Principal, input application.WorkLogInput) (application.WorkLog, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.WorkLogInput) (application.WorkLog, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

type WorkLogHandler struct {
	service   workLogService
	responder responder
	logger    *slog.Logger
}

func NewWorkLogHandler(service workLogService, logger *slog.Logger) *WorkLogHandler {
	base := defaultLogger(logger)
	return &WorkLogHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *WorkLogHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, principal application.Principal, err error) {
	handlerLogger(ctx, h.logger, "WorkLogHandler", operation, "principal_id", principal.UserID).ErrorContext(ctx, "work log request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *WorkLogHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	m, err := monthFromQuery(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logs, err := h.service.ListByMonth(r.Context(), principal, m)
	if err != nil {
		h.fail(r.Context(), w, "List", principal, err)
		return
	}

	out := make([]workLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, toWorkLogDTO(l))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *WorkLogHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.WorkLogInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	log, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		h.fail(r.Context(), w, "Create", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWorkLogDTO(log))
}

func (h *WorkLogHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var input application.WorkLogInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	log, err := h.service.Update(r.Context(), principal, ps.ByName("id"), input)
	if err != nil {
		h.fail(r.Context(), w, "Update", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkLogDTO(log))
}

func (h *WorkLogHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, ps.ByName("id")); err != nil {
		h.fail(r.Context(), w, "Delete", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type workLogDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Manager      string `json:"manager"`
	CashPayment  string `json:"cashPayment"`
	Reservations string `json:"reservations"`
	Event        string `json:"event"`
	StoreRelated string `json:"storeRelated"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toWorkLogDTO(l application.WorkLog) workLogDTO {
	return workLogDTO{
		ID:           l.ID,
		Date:         l.Date,
		Manager:      l.Manager,
		CashPayment:  l.CashPayment,
		Reservations: l.Reservations,
		Event:        l.Event,
		StoreRelated: l.StoreRelated,
		Notes:        l.Notes,
		CreatedAt:    formatTimestamp(l.CreatedAt),
		UpdatedAt:    formatTimestamp(l.UpdatedAt),
	}
}
