package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	ChangePassword(ctx context.Context, principal application.Principal, userID, password string) error
	DeleteUser(ctx context.Context, principal application.Principal, userID string) error
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	ListActors(ctx context.Context, principal application.Principal) ([]application.User, error)
	CurrentUser(ctx context.Context, principal application.Principal) (application.User, error)
	ChangeOwnPassword(ctx context.Context, principal application.Principal, current, next string) error
	UpdateOwnPhone(ctx context.Context, principal application.Principal, phone string) (application.User, error)
}

// UserHandler serves account administration and the self-service endpoints.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to list users", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTOs(users))
}

// Actors lists the accounts that get a column in the hour table.
func (h *UserHandler) Actors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	actors, err := h.service.ListActors(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Actors", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to list actors", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTOs(actors))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "user creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.UserID).InfoContext(r.Context(), "user created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	userID := strings.TrimSpace(ps.ByName("userid"))
	principal, _ := PrincipalFromContext(r.Context())

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "user_id", userID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "user_id", userID)

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "user update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	userID := strings.TrimSpace(ps.ByName("userid"))
	principal, _ := PrincipalFromContext(r.Context())

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal, userID, req.NewPassword); err != nil {
		h.log(r.Context(), "ChangePassword", "principal_id", principal.UserID, "user_id", userID).ErrorContext(r.Context(), "password change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	userID := strings.TrimSpace(ps.ByName("userid"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID)
	if err := h.service.DeleteUser(r.Context(), principal, userID); err != nil {
		logger.ErrorContext(r.Context(), "user delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Info returns the caller's own account.
func (h *UserHandler) Info(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.CurrentUser(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Info", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to load current user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.ChangeOwnPassword(r.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		h.log(r.Context(), "ChangeOwnPassword", "principal_id", principal.UserID).ErrorContext(r.Context(), "password change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) UpdateOwnPhone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req phoneRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateOwnPhone(r.Context(), principal, req.PhoneNumber)
	if err != nil {
		h.log(r.Context(), "UpdateOwnPhone", "principal_id", principal.UserID).ErrorContext(r.Context(), "phone update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type userRequest struct {
	UserID      string `json:"userid"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	AccountType string `json:"accountType"`
	Role        string `json:"role"`
	Admin       bool   `json:"admin"`
}

func (r userRequest) toInput() application.UserInput {
	return application.UserInput{
		UserID:      r.UserID,
		Username:    r.Username,
		Password:    r.Password,
		PhoneNumber: r.PhoneNumber,
		AccountType: r.AccountType,
		Role:        r.Role,
		IsAdmin:     r.Admin,
	}
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type phoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type accountTypeDTO struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

// toAccountTypeDTO is the only place an account type is rendered for clients.
func toAccountTypeDTO(t application.AccountType) accountTypeDTO {
	return accountTypeDTO{Code: string(t), DisplayName: t.DisplayName()}
}

type userDTO struct {
	UserID      string         `json:"userid"`
	Username    string         `json:"username"`
	PhoneNumber string         `json:"phoneNumber"`
	AccountType accountTypeDTO `json:"accountType"`
	Role        string         `json:"role"`
	Admin       bool           `json:"admin"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		UserID:      user.UserID,
		Username:    user.Username,
		PhoneNumber: user.PhoneNumber,
		AccountType: toAccountTypeDTO(user.AccountType),
		Role:        user.Role,
		Admin:       user.IsAdmin,
		CreatedAt:   formatTimestamp(user.CreatedAt),
		UpdatedAt:   formatTimestamp(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}
