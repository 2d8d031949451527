package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/showflix-scheduler/internal/application"
)

var (
	errBadRequestBody      = errors.New("잘못된 요청 형식입니다.")
	errInvalidMonth        = errors.New("연도와 월을 올바르게 지정해 주세요.")
	errMissingDate         = errors.New("날짜를 지정해 주세요.")
	errMissingSessionToken = errors.New("인증 토큰이 필요합니다.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "이 작업을 수행할 권한이 없습니다.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "아이디 또는 비밀번호가 올바르지 않습니다.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "세션이 만료되었습니다. 다시 로그인해 주세요.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "요청한 리소스를 찾을 수 없습니다."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "이미 존재하는 항목입니다.",
		})
	case errors.Is(err, application.ErrScheduleConfirmed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULE_CONFIRMED",
			Message:   "확정된 일정은 변경할 수 없습니다.",
		})
	case errors.Is(err, application.ErrSelfDeletion):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SELF_DELETION",
			Message:   "자기 자신의 계정은 삭제할 수 없습니다.",
		})
	case errors.Is(err, application.ErrSelfDemotion):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SELF_DEMOTION",
			Message:   "자기 자신의 관리자 권한은 해제할 수 없습니다.",
		})
	case errors.Is(err, application.ErrInvalidSlip):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_SLIP",
			Message:   "예약 확인증이 유효하지 않습니다.",
		})
	case errors.Is(err, application.ErrSlipFontMissing):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "SLIP_FONT_MISSING",
			Message:   "PDF 글꼴이 설정되지 않아 확인증을 만들 수 없습니다.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "입력 내용에 오류가 있습니다.",
				Errors:  details,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "서버 내부 오류가 발생했습니다."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "요청 내용이 올바르지 않습니다."
	case http.StatusUnauthorized:
		return "로그인이 필요합니다."
	case http.StatusForbidden:
		return "이 작업을 수행할 권한이 없습니다."
	case http.StatusNotFound:
		return "요청한 리소스를 찾을 수 없습니다."
	case http.StatusMethodNotAllowed:
		return "허용되지 않은 요청 방식입니다."
	case http.StatusConflict:
		return "요청이 현재 리소스 상태와 충돌합니다."
	case http.StatusUnprocessableEntity:
		return "입력 내용에 오류가 있습니다."
	case http.StatusTooManyRequests:
		return "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요."
	default:
		return "서버 내부 오류가 발생했습니다."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

var fieldLabels = map[string]string{
	"userid":          "아이디",
	"userId":          "사용자 ID",
	"username":        "이름",
	"password":        "비밀번호",
	"date":            "날짜",
	"manager":         "담당자",
	"customerName":    "고객명",
	"reservationDate": "예약 날짜",
	"content":         "내용",
	"role":            "역할",
}

func translateValidationMessage(message string) string {
	switch message {
	case "phone number must be 10-13 digits":
		return "전화번호는 숫자 10~13자리로 입력해 주세요."
	case "contact info is invalid":
		return "연락처 형식이 올바르지 않습니다."
	case "time must use HH:MM":
		return "시간은 HH:MM 형식으로 입력해 주세요."
	case "date must use YYYY-MM-DD":
		return "날짜는 YYYY-MM-DD 형식으로 입력해 주세요."
	case "role is invalid":
		return "알 수 없는 역할입니다."
	case "account type is invalid":
		return "알 수 없는 계정 유형입니다."
	case "current password is required":
		return "현재 비밀번호를 입력해 주세요."
	case "current password is incorrect":
		return "현재 비밀번호가 일치하지 않습니다."
	case "new password is required":
		return "새 비밀번호를 입력해 주세요."
	case "confirmed must be Y or N":
		return "확정 값은 Y 또는 N 이어야 합니다."
	case "time slot is invalid":
		return "선택할 수 없는 시간대입니다."
	case "time slot is duplicated":
		return "같은 시간대가 중복되었습니다."
	case "hours must be a number between 0 and 24":
		return "근무 시간은 0에서 24 사이의 숫자로 입력해 주세요."
	case "peopleCount must be at least 1":
		return "인원은 1명 이상이어야 합니다."
	case "expectedRevenue must not be negative":
		return "예상 매출은 0 이상이어야 합니다."
	case "reservation status is invalid":
		return "알 수 없는 예약 상태입니다."
	case "highlight type is invalid":
		return "알 수 없는 강조 색상입니다."
	case "status or highlight is required":
		return "변경할 상태 또는 강조 색상을 지정해 주세요."
	case "ids is required":
		return "대상 예약을 하나 이상 선택해 주세요."
	case "request is invalid":
		return "요청 내용이 올바르지 않습니다."
	}

	if field, ok := strings.CutSuffix(message, " is required"); ok {
		return label(field) + "은(는) 필수 항목입니다."
	}
	if field, ok := strings.CutSuffix(message, " must be 1-20 Korean or English letters"); ok {
		return label(field) + "은(는) 한글 또는 영문 1~20자로 입력해 주세요."
	}
	if field, ok := strings.CutSuffix(message, " is too long"); ok {
		return label(field) + "이(가) 너무 깁니다."
	}
	if field, ok := strings.CutSuffix(message, " is too small"); ok {
		return label(field) + "이(가) 너무 작습니다."
	}
	if field, ok := strings.CutSuffix(message, " is invalid"); ok {
		return label(field) + " 값이 올바르지 않습니다."
	}
	return message
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
