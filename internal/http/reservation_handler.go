package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
)

type reservationService interface {
	List(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	Get(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	Page(ctx context.Context, principal application.Principal, req application.PageRequest) (application.ReservationPage, error)
	ByStatus(ctx context.Context, principal application.Principal, status string) ([]application.Reservation, error)
	Search(ctx context.Context, principal application.Principal, criteria application.ReservationSearch) ([]application.Reservation, error)
	Statistics(ctx context.Context, principal application.Principal) (application.ReservationStatistics, error)
	Create(ctx context.Context, principal application.Principal, input application.ReservationInput) (application.Reservation, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.ReservationInput) (application.Reservation, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
	SetHighlight(ctx context.Context, principal application.Principal, id, highlight string) (application.Reservation, error)
	SetStatus(ctx context.Context, principal application.Principal, id, status string) (application.Reservation, error)
	BatchUpdate(ctx context.Context, principal application.Principal, params application.BatchUpdateParams) (int, error)
	ExportCSV(ctx context.Context, principal application.Principal, w io.Writer) (string, error)
	Slip(ctx context.Context, principal application.Principal, id string, w io.Writer) (string, error)
	VerifySlip(ctx context.Context, principal application.Principal, payload string) (application.Reservation, error)
}

// ReservationHandler serves the special reservation board.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *ReservationHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, principal application.Principal, err error) {
	h.log(ctx, operation, "principal_id", principal.UserID).ErrorContext(ctx, "reservation request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, "List", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(list))
}

func (h *ReservationHandler) Page(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Page(r.Context(), principal, application.PageRequest{
		Page:    page,
		Size:    size,
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortDir"),
	})
	if err != nil {
		h.fail(r.Context(), w, "Page", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, pageResponse{
		Content:       toReservationDTOs(result.Content),
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
		First:         result.First,
		Last:          result.Last,
		HasNext:       result.HasNext,
		HasPrevious:   result.HasPrevious,
	})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	res, err := h.service.Get(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.fail(r.Context(), w, "Get", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(res))
}

func (h *ReservationHandler) ByStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	list, err := h.service.ByStatus(r.Context(), principal, ps.ByName("status"))
	if err != nil {
		h.fail(r.Context(), w, "ByStatus", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(list))
}

func (h *ReservationHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	query := r.URL.Query()
	principal, _ := PrincipalFromContext(r.Context())
	list, err := h.service.Search(r.Context(), principal, application.ReservationSearch{
		CustomerName:   query.Get("customerName"),
		ContactInfo:    query.Get("contactInfo"),
		SpecialRemarks: query.Get("specialRemarks"),
		Status:         query.Get("status"),
	})
	if err != nil {
		h.fail(r.Context(), w, "Search", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(list))
}

func (h *ReservationHandler) Statistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.Statistics(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, "Statistics", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, statisticsDTO{
		TotalCount:       stats.Total,
		PendingCount:     stats.Pending,
		ConfirmedCount:   stats.Confirmed,
		CompletedCount:   stats.Completed,
		CancelledCount:   stats.Cancelled,
		TotalRevenue:     stats.TotalRevenue,
		PendingRevenue:   stats.PendingRevenue,
		ConfirmedRevenue: stats.ConfirmedRevenue,
		CompletedRevenue: stats.CompletedRevenue,
	})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	res, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.fail(r.Context(), w, "Create", principal, err)
		return
	}
	h.log(r.Context(), "Create", "principal_id", principal.UserID, "reservation_id", res.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(res))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	res, err := h.service.Update(r.Context(), principal, ps.ByName("id"), req.toInput())
	if err != nil {
		h.fail(r.Context(), w, "Update", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(res))
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, ps.ByName("id")); err != nil {
		h.fail(r.Context(), w, "Delete", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SetHighlight reads highlightType from the query string or a JSON body.
func (h *ReservationHandler) SetHighlight(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	value, ok := h.patchValue(w, r, "highlightType")
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	res, err := h.service.SetHighlight(r.Context(), principal, ps.ByName("id"), value)
	if err != nil {
		h.fail(r.Context(), w, "SetHighlight", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(res))
}

// SetStatus reads status from the query string or a JSON body.
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	value, ok := h.patchValue(w, r, "status")
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	res, err := h.service.SetStatus(r.Context(), principal, ps.ByName("id"), value)
	if err != nil {
		h.fail(r.Context(), w, "SetStatus", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(res))
}

func (h *ReservationHandler) patchValue(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	if value := strings.TrimSpace(r.URL.Query().Get(key)); value != "" {
		return value, true
	}
	var body map[string]string
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return "", false
		}
	}
	return body[key], true
}

func (h *ReservationHandler) BatchUpdate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req batchUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, string(id))
	}

	updated, err := h.service.BatchUpdate(r.Context(), principal, application.BatchUpdateParams{
		IDs:       ids,
		Status:    nonEmpty(req.Status),
		Highlight: nonEmpty(req.HighlightType),
	})
	if err != nil {
		h.fail(r.Context(), w, "BatchUpdate", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, batchUpdateResponse{UpdatedCount: updated})
}

func (h *ReservationHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var buf bytes.Buffer
	filename, err := h.service.ExportCSV(r.Context(), principal, &buf)
	if err != nil {
		h.fail(r.Context(), w, "Export", principal, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", filename, &buf)
}

func (h *ReservationHandler) Slip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var buf bytes.Buffer
	filename, err := h.service.Slip(r.Context(), principal, ps.ByName("id"), &buf)
	if err != nil {
		h.fail(r.Context(), w, "Slip", principal, err)
		return
	}
	writeAttachment(w, "application/pdf", filename, &buf)
}

// VerifySlip resolves the payload scanned from a slip's QR code.
func (h *ReservationHandler) VerifySlip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	res, err := h.service.VerifySlip(r.Context(), principal, r.URL.Query().Get("payload"))
	if err != nil {
		h.fail(r.Context(), w, "VerifySlip", principal, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(res))
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

type reservationRequest struct {
	ReservationDate   *string `json:"reservationDate"`
	ReservationTime   *string `json:"reservationTime"`
	SpecialRemarks    *string `json:"specialRemarks"`
	CustomerName      *string `json:"customerName"`
	PeopleCount       *int    `json:"peopleCount"`
	PaymentStatus     *string `json:"paymentStatus"`
	ContactInfo       *string `json:"contactInfo"`
	Notes             *string `json:"notes"`
	ReservationStatus *string `json:"reservationStatus"`
	HighlightType     *string `json:"highlightType"`
	ExpectedRevenue   *int64  `json:"expectedRevenue"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		Date:            r.ReservationDate,
		Time:            r.ReservationTime,
		SpecialRemarks:  r.SpecialRemarks,
		CustomerName:    r.CustomerName,
		PeopleCount:     r.PeopleCount,
		PaymentStatus:   r.PaymentStatus,
		ContactInfo:     r.ContactInfo,
		Notes:           r.Notes,
		Status:          r.ReservationStatus,
		Highlight:       r.HighlightType,
		ExpectedRevenue: r.ExpectedRevenue,
	}
}

type batchUpdateRequest struct {
	IDs           []flexString `json:"ids"`
	Status        *string      `json:"status"`
	HighlightType *string      `json:"highlightType"`
}

type batchUpdateResponse struct {
	UpdatedCount int `json:"updatedCount"`
}

type reservationDTO struct {
	ID                string `json:"id"`
	ReservationDate   string `json:"reservationDate"`
	ReservationTime   string `json:"reservationTime"`
	SpecialRemarks    string `json:"specialRemarks"`
	CustomerName      string `json:"customerName"`
	PeopleCount       *int   `json:"peopleCount"`
	PaymentStatus     string `json:"paymentStatus"`
	ContactInfo       string `json:"contactInfo"`
	Notes             string `json:"notes"`
	ReservationStatus string `json:"reservationStatus"`
	HighlightType     string `json:"highlightType"`
	ExpectedRevenue   *int64 `json:"expectedRevenue"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	CreatedBy         string `json:"createdBy"`
	UpdatedBy         string `json:"updatedBy"`
}

func toReservationDTO(r application.Reservation) reservationDTO {
	return reservationDTO{
		ID:                r.ID,
		ReservationDate:   r.Date,
		ReservationTime:   r.Time,
		SpecialRemarks:    r.SpecialRemarks,
		CustomerName:      r.CustomerName,
		PeopleCount:       r.PeopleCount,
		PaymentStatus:     r.PaymentStatus,
		ContactInfo:       r.ContactInfo,
		Notes:             r.Notes,
		ReservationStatus: string(r.Status),
		HighlightType:     string(r.Highlight),
		ExpectedRevenue:   r.ExpectedRevenue,
		CreatedAt:         formatTimestamp(r.CreatedAt),
		UpdatedAt:         formatTimestamp(r.UpdatedAt),
		CreatedBy:         r.CreatedBy,
		UpdatedBy:         r.UpdatedBy,
	}
}

func toReservationDTOs(list []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationDTO(r))
	}
	return out
}

type pageResponse struct {
	Content       []reservationDTO `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int              `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	First         bool             `json:"first"`
	Last          bool             `json:"last"`
	HasNext       bool             `json:"hasNext"`
	HasPrevious   bool             `json:"hasPrevious"`
}

type statisticsDTO struct {
	TotalCount       int   `json:"totalCount"`
	PendingCount     int   `json:"pendingCount"`
	ConfirmedCount   int   `json:"confirmedCount"`
	CompletedCount   int   `json:"completedCount"`
	CancelledCount   int   `json:"cancelledCount"`
	TotalRevenue     int64 `json:"totalRevenue"`
	PendingRevenue   int64 `json:"pendingRevenue"`
	ConfirmedRevenue int64 `json:"confirmedRevenue"`
	CompletedRevenue int64 `json:"completedRevenue"`
}
