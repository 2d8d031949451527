package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/export"
)

// RevenuePerPerson is the default expected revenue per booked guest.
const RevenuePerPerson int64 = 50000

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// reservationSortKeys whitelists the sortable fields of the paged list.
var reservationSortKeys = map[string]struct{}{
	"createdAt":         {},
	"updatedAt":         {},
	"reservationDate":   {},
	"reservationTime":   {},
	"customerName":      {},
	"peopleCount":       {},
	"reservationStatus": {},
	"expectedRevenue":   {},
}

// ReservationRepository persists special reservations.
type ReservationRepository interface {
	// ListReservations returns every reservation, newest first.
	ListReservations(ctx context.Context) ([]Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	// PageReservations returns one page and the total row count. SortBy is one
	// of the whitelisted keys and SortDir is "asc" or "desc".
	PageReservations(ctx context.Context, page PageRequest) ([]Reservation, int, error)
	SearchReservations(ctx context.Context, criteria ReservationSearch) ([]Reservation, error)
	ReservationsByStatus(ctx context.Context, status ReservationStatus) ([]Reservation, error)
	// UpdateReservations applies the non-nil changes to every id in one
	// transaction and reports how many rows changed.
	UpdateReservations(ctx context.Context, ids []string, status *ReservationStatus, highlight *HighlightType, updatedBy string, updatedAt time.Time) (int, error)
}

// ReservationService manages special (group) reservations.
type ReservationService struct {
	reservations ReservationRepository
	idGenerator  func() string
	now          func() time.Time
	slip         export.SlipOptions
	logger       *slog.Logger
}

// NewReservationService wires the reservation service.
func NewReservationService(reservations ReservationRepository, idGenerator func() string, now func() time.Time, slip export.SlipOptions) *ReservationService {
	return NewReservationServiceWithLogger(reservations, idGenerator, now, slip, nil)
}

// NewReservationServiceWithLogger wires the reservation service with a specific logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, idGenerator func() string, now func() time.Time, slip export.SlipOptions, logger *slog.Logger) *ReservationService {
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		idGenerator:  idGenerator,
		now:          now,
		slip:         slip,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// ready checks wiring and the session; writes additionally need admin.
func (s *ReservationService) ready(principal Principal, write bool) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	if principal.UserID == "" || (write && !principal.IsAdmin) {
		return ErrUnauthorized
	}
	return nil
}

// List returns every reservation, newest first.
func (s *ReservationService) List(ctx context.Context, principal Principal) ([]Reservation, error) {
	if err := s.ready(principal, false); err != nil {
		return nil, err
	}
	out, err := s.reservations.ListReservations(ctx)
	return out, mapRepoError(err)
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, principal Principal, id string) (Reservation, error) {
	if err := s.ready(principal, false); err != nil {
		return Reservation{}, err
	}
	r, err := s.reservations.GetReservation(ctx, strings.TrimSpace(id))
	return r, mapRepoError(err)
}

// Page returns one page of reservations. Unknown sort keys fall back to
// createdAt descending.
func (s *ReservationService) Page(ctx context.Context, principal Principal, req PageRequest) (page ReservationPage, err error) {
	if err = s.ready(principal, false); err != nil {
		return
	}

	req = normalizePageRequest(req)
	var (
		content []Reservation
		total   int
	)
	if content, total, err = s.reservations.PageReservations(ctx, req); err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "Page").ErrorContext(ctx, "failed to page reservations", "error", err, "error_kind", ErrorKind(err))
		return
	}

	totalPages := (total + req.Size - 1) / req.Size
	page = ReservationPage{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
		HasNext:       req.Page < totalPages-1,
		HasPrevious:   req.Page > 0,
	}
	if page.Content == nil {
		page.Content = []Reservation{}
	}
	return
}

func normalizePageRequest(req PageRequest) PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = defaultPageSize
	}
	if req.Size > maxPageSize {
		req.Size = maxPageSize
	}
	if _, ok := reservationSortKeys[req.SortBy]; !ok {
		req.SortBy = "createdAt"
		req.SortDir = "desc"
	}
	if strings.EqualFold(req.SortDir, "asc") {
		req.SortDir = "asc"
	} else {
		req.SortDir = "desc"
	}
	return req
}

// ByStatus returns reservations in status.
func (s *ReservationService) ByStatus(ctx context.Context, principal Principal, status string) ([]Reservation, error) {
	if err := s.ready(principal, false); err != nil {
		return nil, err
	}
	parsed, ok := ParseReservationStatus(status)
	if !ok {
		return nil, &ValidationError{FieldErrors: map[string]string{"reservationStatus": "reservation status is invalid"}}
	}
	out, err := s.reservations.ReservationsByStatus(ctx, parsed)
	return out, mapRepoError(err)
}

// Search matches every provided criterion as a case-insensitive substring,
// except status which must match exactly.
func (s *ReservationService) Search(ctx context.Context, principal Principal, criteria ReservationSearch) ([]Reservation, error) {
	if err := s.ready(principal, false); err != nil {
		return nil, err
	}
	criteria = ReservationSearch{
		CustomerName:   strings.TrimSpace(criteria.CustomerName),
		ContactInfo:    strings.TrimSpace(criteria.ContactInfo),
		SpecialRemarks: strings.TrimSpace(criteria.SpecialRemarks),
		Status:         strings.TrimSpace(criteria.Status),
	}
	if criteria.Status != "" {
		parsed, ok := ParseReservationStatus(criteria.Status)
		if !ok {
			return nil, &ValidationError{FieldErrors: map[string]string{"reservationStatus": "reservation status is invalid"}}
		}
		criteria.Status = string(parsed)
	}
	out, err := s.reservations.SearchReservations(ctx, criteria)
	return out, mapRepoError(err)
}

// Statistics counts reservations and sums expected revenue per status.
func (s *ReservationService) Statistics(ctx context.Context, principal Principal) (ReservationStatistics, error) {
	all, err := s.List(ctx, principal)
	if err != nil {
		return ReservationStatistics{}, err
	}
	return computeStatistics(all), nil
}

func computeStatistics(all []Reservation) ReservationStatistics {
	var stats ReservationStatistics
	for _, r := range all {
		stats.Total++
		var revenue int64
		if r.ExpectedRevenue != nil {
			revenue = *r.ExpectedRevenue
		}
		switch r.Status {
		case ReservationPending:
			stats.Pending++
			stats.PendingRevenue += revenue
		case ReservationConfirmed:
			stats.Confirmed++
			stats.ConfirmedRevenue += revenue
		case ReservationCompleted:
			stats.Completed++
			stats.CompletedRevenue += revenue
		case ReservationCancelled:
			stats.Cancelled++
		}
		stats.TotalRevenue += revenue
	}
	return stats
}

// Create stores a new reservation. Status defaults to PENDING, highlight to
// NONE and expected revenue to peopleCount times RevenuePerPerson.
func (s *ReservationService) Create(ctx context.Context, principal Principal, input ReservationInput) (reservation Reservation, err error) {
	if err = s.ready(principal, true); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create reservation", "reservation created", "reservation_id", reservation.ID)
	}()

	vErr := validateReservationInput(input)
	if input.Date == nil || strings.TrimSpace(*input.Date) == "" {
		vErr.add("reservationDate", "reservationDate is required")
	}
	if input.CustomerName == nil {
		vErr.add("customerName", "customerName is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	id := ""
	if s.idGenerator != nil {
		id = s.idGenerator()
	}
	if id == "" {
		err = fmt.Errorf("reservation id generator returned empty id")
		return
	}

	now := s.now()
	candidate := Reservation{
		ID:        id,
		Status:    ReservationPending,
		Highlight: HighlightNone,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: principal.UserID,
		UpdatedBy: principal.UserID,
	}
	applyReservationInput(&candidate, input)
	if candidate.ExpectedRevenue == nil && candidate.PeopleCount != nil {
		revenue := int64(*candidate.PeopleCount) * RevenuePerPerson
		candidate.ExpectedRevenue = &revenue
	}

	reservation, err = s.reservations.CreateReservation(ctx, candidate)
	err = mapRepoError(err)
	return
}

// Update applies the provided fields to an existing reservation. A changed
// head count without an explicit revenue recomputes the expected revenue.
func (s *ReservationService) Update(ctx context.Context, principal Principal, id string, input ReservationInput) (reservation Reservation, err error) {
	if err = s.ready(principal, true); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "Update", "principal_id", principal.UserID, "reservation_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update reservation", "reservation updated")
	}()

	vErr := validateReservationInput(input)
	if input.Date != nil && strings.TrimSpace(*input.Date) == "" {
		vErr.add("reservationDate", "reservationDate is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var existing Reservation
	if existing, err = s.reservations.GetReservation(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	peopleChanged := input.PeopleCount != nil && (existing.PeopleCount == nil || *existing.PeopleCount != *input.PeopleCount)
	applyReservationInput(&existing, input)
	if peopleChanged && input.ExpectedRevenue == nil {
		revenue := int64(*existing.PeopleCount) * RevenuePerPerson
		existing.ExpectedRevenue = &revenue
	}
	existing.UpdatedAt = s.now()
	existing.UpdatedBy = principal.UserID

	reservation, err = s.reservations.UpdateReservation(ctx, existing)
	err = mapRepoError(err)
	return
}

// Delete removes a reservation; unknown ids yield ErrNotFound.
func (s *ReservationService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if err = s.ready(principal, true); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "reservation_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete reservation", "reservation deleted")
	}()

	err = mapRepoError(s.reservations.DeleteReservation(ctx, id))
	return
}

// SetHighlight changes the row colour of one reservation.
func (s *ReservationService) SetHighlight(ctx context.Context, principal Principal, id, highlight string) (Reservation, error) {
	return s.Update(ctx, principal, id, ReservationInput{Highlight: &highlight})
}

// SetStatus changes the lifecycle state of one reservation.
func (s *ReservationService) SetStatus(ctx context.Context, principal Principal, id, status string) (Reservation, error) {
	return s.Update(ctx, principal, id, ReservationInput{Status: &status})
}

// BatchUpdate applies a status and/or highlight to several reservations at once.
func (s *ReservationService) BatchUpdate(ctx context.Context, principal Principal, params BatchUpdateParams) (updated int, err error) {
	if err = s.ready(principal, true); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "BatchUpdate", "principal_id", principal.UserID, "requested", len(params.IDs))
	defer func() {
		logOutcome(ctx, logger, err, "failed to batch update reservations", "reservations updated", "updated", updated)
	}()

	vErr := &ValidationError{}
	ids := make([]string, 0, len(params.IDs))
	seen := make(map[string]struct{}, len(params.IDs))
	for _, id := range params.IDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		vErr.add("ids", "ids is required")
	}

	var status *ReservationStatus
	if params.Status != nil {
		if parsed, ok := ParseReservationStatus(*params.Status); ok {
			status = &parsed
		} else {
			vErr.add("reservationStatus", "reservation status is invalid")
		}
	}
	var highlight *HighlightType
	if params.Highlight != nil {
		if parsed, ok := ParseHighlightType(*params.Highlight); ok {
			highlight = &parsed
		} else {
			vErr.add("highlightType", "highlight type is invalid")
		}
	}
	if status == nil && highlight == nil && params.Status == nil && params.Highlight == nil {
		vErr.add("request", "status or highlight is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	updated, err = s.reservations.UpdateReservations(ctx, ids, status, highlight, principal.UserID, s.now())
	err = mapRepoError(err)
	return
}

// ExportCSV writes every reservation to w and returns the download file name.
func (s *ReservationService) ExportCSV(ctx context.Context, principal Principal, w io.Writer) (string, error) {
	all, err := s.List(ctx, principal)
	if err != nil {
		return "", err
	}
	rows := make([]export.ReservationRow, 0, len(all))
	for _, r := range all {
		rows = append(rows, export.ReservationRow{
			Date:           r.Date,
			Time:           r.Time,
			SpecialRemarks: r.SpecialRemarks,
			CustomerName:   r.CustomerName,
			PeopleCount:    r.PeopleCount,
			PaymentStatus:  r.PaymentStatus,
			ContactInfo:    r.ContactInfo,
			Notes:          r.Notes,
			Status:         string(r.Status),
		})
	}
	if err := export.WriteReservationsCSV(w, rows); err != nil {
		return "", err
	}
	return export.ReservationFileName(s.now()), nil
}

// Slip renders the PDF slip of one reservation to w and returns its file name.
func (s *ReservationService) Slip(ctx context.Context, principal Principal, id string, w io.Writer) (string, error) {
	r, err := s.Get(ctx, principal, id)
	if err != nil {
		return "", err
	}

	slip := export.Slip{
		ID:             r.ID,
		Date:           r.Date,
		Time:           r.Time,
		CustomerName:   r.CustomerName,
		ContactInfo:    r.ContactInfo,
		Status:         string(r.Status),
		SpecialRemarks: r.SpecialRemarks,
		Notes:          r.Notes,
	}
	if r.PeopleCount != nil {
		slip.PeopleCount = *r.PeopleCount
	}
	if r.ExpectedRevenue != nil {
		slip.ExpectedRevenue = *r.ExpectedRevenue
	}

	opts := s.slip
	opts.GeneratedAt = s.now()
	if err := export.WriteReservationSlip(w, slip, opts); err != nil {
		if errors.Is(err, export.ErrFontRequired) {
			err = ErrSlipFontMissing
		}
		s.loggerWith(ctx, "Slip", "reservation_id", r.ID).ErrorContext(ctx, "failed to render slip", "error", err, "error_kind", ErrorKind(err))
		return "", err
	}
	return export.SlipFileName(r.ID), nil
}

// VerifySlip checks the QR payload printed on a slip and returns the
// reservation it names. A forged payload, a deleted reservation and one whose
// date or time changed since printing all yield ErrInvalidSlip.
func (s *ReservationService) VerifySlip(ctx context.Context, principal Principal, payload string) (r Reservation, err error) {
	if err = s.ready(principal, false); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "VerifySlip", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "slip rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	fields, verr := export.VerifyPayload(s.slip.Secret, strings.TrimSpace(payload))
	if verr != nil || len(fields) != 3 {
		err = ErrInvalidSlip
		return
	}
	if r, err = s.reservations.GetReservation(ctx, fields[0]); err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			err = ErrInvalidSlip
		}
		return
	}
	if r.Date != fields[1] || r.Time != fields[2] {
		r = Reservation{}
		err = ErrInvalidSlip
	}
	return
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Date != nil && strings.TrimSpace(*input.Date) != "" {
		checkVar(vErr, "reservationDate", strings.TrimSpace(*input.Date), "date")
	}
	if input.Time != nil && strings.TrimSpace(*input.Time) != "" {
		checkVar(vErr, "reservationTime", strings.TrimSpace(*input.Time), "clock")
	}
	if input.PeopleCount != nil && *input.PeopleCount < 1 {
		vErr.add("peopleCount", "peopleCount must be at least 1")
	}
	if input.ContactInfo != nil {
		checkVar(vErr, "contactInfo", strings.TrimSpace(*input.ContactInfo), "contact")
	}
	if input.CustomerName != nil {
		checkVar(vErr, "customerName", strings.TrimSpace(*input.CustomerName), "required,max=100")
	}
	if input.Status != nil {
		if _, ok := ParseReservationStatus(*input.Status); !ok {
			vErr.add("reservationStatus", "reservation status is invalid")
		}
	}
	if input.Highlight != nil {
		if _, ok := ParseHighlightType(*input.Highlight); !ok {
			vErr.add("highlightType", "highlight type is invalid")
		}
	}
	if input.ExpectedRevenue != nil && *input.ExpectedRevenue < 0 {
		vErr.add("expectedRevenue", "expectedRevenue must not be negative")
	}
	return vErr
}

// applyReservationInput copies the non-nil fields of input onto r. Input must
// already be validated.
func applyReservationInput(r *Reservation, input ReservationInput) {
	trim := func(p *string) string { return strings.TrimSpace(*p) }
	if input.Date != nil {
		r.Date = trim(input.Date)
	}
	if input.Time != nil {
		r.Time = trim(input.Time)
	}
	if input.SpecialRemarks != nil {
		r.SpecialRemarks = trim(input.SpecialRemarks)
	}
	if input.CustomerName != nil {
		r.CustomerName = trim(input.CustomerName)
	}
	if input.PeopleCount != nil {
		n := *input.PeopleCount
		r.PeopleCount = &n
	}
	if input.PaymentStatus != nil {
		r.PaymentStatus = trim(input.PaymentStatus)
	}
	if input.ContactInfo != nil {
		r.ContactInfo = trim(input.ContactInfo)
	}
	if input.Notes != nil {
		r.Notes = trim(input.Notes)
	}
	if input.Status != nil {
		r.Status, _ = ParseReservationStatus(*input.Status)
	}
	if input.Highlight != nil {
		r.Highlight, _ = ParseHighlightType(*input.Highlight)
	}
	if input.ExpectedRevenue != nil {
		v := *input.ExpectedRevenue
		r.ExpectedRevenue = &v
	}
}
