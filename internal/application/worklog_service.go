package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/calendar"
)

// WorkLogRepository persists work logs.
type WorkLogRepository interface {
	ListWorkLogs(ctx context.Context, from, to string) ([]WorkLog, error)
	GetWorkLog(ctx context.Context, id string) (WorkLog, error)
	CreateWorkLog(ctx context.Context, log WorkLog) (WorkLog, error)
	UpdateWorkLog(ctx context.Context, log WorkLog) (WorkLog, error)
	DeleteWorkLog(ctx context.Context, id string) error
}

// WorkLogInput carries the editable work log fields.
type WorkLogInput struct {
	Date         string `json:"date" validate:"required,date"`
	Manager      string `json:"manager" validate:"max=100"`
	CashPayment  string `json:"cashPayment"`
	Reservations string `json:"reservations"`
	Event        string `json:"event"`
	StoreRelated string `json:"storeRelated"`
	Notes        string `json:"notes"`
}

// WorkLogService manages the daily operations log for administrators.
type WorkLogService struct {
	logs        WorkLogRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewWorkLogService wires the work log service.
func NewWorkLogService(logs WorkLogRepository, idGenerator func() string, now func() time.Time) *WorkLogService {
	return NewWorkLogServiceWithLogger(logs, idGenerator, now, nil)
}

// NewWorkLogServiceWithLogger wires the work log service with a specific logger.
func NewWorkLogServiceWithLogger(logs WorkLogRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkLogService {
	if now == nil {
		now = time.Now
	}
	return &WorkLogService{logs: logs, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *WorkLogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkLogService", operation, attrs...)
}

func (s *WorkLogService) ready(principal Principal) error {
	if s == nil {
		return fmt.Errorf("WorkLogService is nil")
	}
	if s.logs == nil {
		return fmt.Errorf("work log repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}

// ListByMonth returns the logs dated inside m.
func (s *WorkLogService) ListByMonth(ctx context.Context, principal Principal, m calendar.Month) ([]WorkLog, error) {
	if err := s.ready(principal); err != nil {
		return nil, err
	}
	from, to := m.Range()
	logs, err := s.logs.ListWorkLogs(ctx, from, to)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListByMonth", "month", m.String()).ErrorContext(ctx, "failed to list work logs", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return logs, nil
}

// Create stores a new log.
func (s *WorkLogService) Create(ctx context.Context, principal Principal, input WorkLogInput) (log WorkLog, err error) {
	if err = s.ready(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Create", "principal_id", principal.UserID, "date", input.Date)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create work log", "work log created", "work_log_id", log.ID)
	}()

	input = normalizeWorkLogInput(input)
	if err = validateStruct(input).errOrNil(); err != nil {
		return
	}

	id := ""
	if s.idGenerator != nil {
		id = s.idGenerator()
	}
	if id == "" {
		err = fmt.Errorf("work log id generator returned empty id")
		return
	}

	now := s.now()
	log = workLogFromInput(input)
	log.ID = id
	log.CreatedAt = now
	log.UpdatedAt = now

	log, err = s.logs.CreateWorkLog(ctx, log)
	err = mapRepoError(err)
	return
}

// Update replaces every editable field of an existing log.
func (s *WorkLogService) Update(ctx context.Context, principal Principal, id string, input WorkLogInput) (log WorkLog, err error) {
	if err = s.ready(principal); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "Update", "principal_id", principal.UserID, "work_log_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update work log", "work log updated")
	}()

	input = normalizeWorkLogInput(input)
	if err = validateStruct(input).errOrNil(); err != nil {
		return
	}

	var existing WorkLog
	if existing, err = s.logs.GetWorkLog(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}

	log = workLogFromInput(input)
	log.ID = existing.ID
	log.CreatedAt = existing.CreatedAt
	log.UpdatedAt = s.now()

	log, err = s.logs.UpdateWorkLog(ctx, log)
	err = mapRepoError(err)
	return
}

// Delete removes a log; unknown ids yield ErrNotFound.
func (s *WorkLogService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if err = s.ready(principal); err != nil {
		return
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "work_log_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete work log", "work log deleted")
	}()

	err = mapRepoError(s.logs.DeleteWorkLog(ctx, id))
	return
}

func normalizeWorkLogInput(in WorkLogInput) WorkLogInput {
	return WorkLogInput{
		Date:         strings.TrimSpace(in.Date),
		Manager:      strings.TrimSpace(in.Manager),
		CashPayment:  strings.TrimSpace(in.CashPayment),
		Reservations: strings.TrimSpace(in.Reservations),
		Event:        strings.TrimSpace(in.Event),
		StoreRelated: strings.TrimSpace(in.StoreRelated),
		Notes:        strings.TrimSpace(in.Notes),
	}
}

func workLogFromInput(in WorkLogInput) WorkLog {
	return WorkLog{
		Date:         in.Date,
		Manager:      in.Manager,
		CashPayment:  in.CashPayment,
		Reservations: in.Reservations,
		Event:        in.Event,
		StoreRelated: in.StoreRelated,
		Notes:        in.Notes,
	}
}
