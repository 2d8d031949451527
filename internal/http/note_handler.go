package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
)

type noteService interface {
	Get(ctx context.Context, principal application.Principal) (application.AdminNote, error)
	Save(ctx context.Context, principal application.Principal, content string) (application.AdminNote, error)
}

type NoteHandler struct {
	service   noteService
	responder responder
	logger    *slog.Logger
}

func NewNoteHandler(service noteService, logger *slog.Logger) *NoteHandler {
	base := defaultLogger(logger)
	return &NoteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	note, err := h.service.Get(r.Context(), principal)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "NoteHandler", "Get").ErrorContext(r.Context(), "failed to load note", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toNoteDTO(note))
}

func (h *NoteHandler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	note, err := h.service.Save(r.Context(), principal, req.Content)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "NoteHandler", "Save", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to save note", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toNoteDTO(note))
}

type noteRequest struct {
	Content string `json:"content"`
}

type noteDTO struct {
	Content   string `json:"content"`
	UpdatedBy string `json:"updatedBy"`
	UpdatedAt string `json:"updatedAt"`
}

func toNoteDTO(note application.AdminNote) noteDTO {
	return noteDTO{Content: note.Content, UpdatedBy: note.UpdatedBy, UpdatedAt: formatTimestamp(note.UpdatedAt)}
}
