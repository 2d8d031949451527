package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/attendance"
)

// CredentialStore exposes the credential lookups shared by authentication and self-service flows.
type CredentialStore interface {
	GetUserCredentials(ctx context.Context, userID string) (UserCredentials, error)
	GetUser(ctx context.Context, userID string) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CredentialStore
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users          UserRepository
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	sorter         *attendance.NameSorter
	now            func() time.Time
	logger         *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, verify PasswordVerifier, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, verify, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specific logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, verify PasswordVerifier, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:          users,
		hashPassword:   hash,
		verifyPassword: verify,
		sorter:         attendance.KoreanSorter(),
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// ListUsers returns all accounts ordered by display name for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return s.sortedUsers(ctx)
}

// ListDirectory returns the id/name pairs offered when adding attendees to a date.
func (s *UserService) ListDirectory(ctx context.Context, principal Principal) ([]DirectoryEntry, error) {
	users, err := s.ListUsers(ctx, principal)
	if err != nil {
		return nil, err
	}
	out := make([]DirectoryEntry, 0, len(users))
	for _, u := range users {
		out = append(out, DirectoryEntry{UserID: u.UserID, UserName: u.Username})
	}
	return out, nil
}

// ListActors returns accounts of type ACTOR ordered by display name. These
// are the columns of the hour table.
func (s *UserService) ListActors(ctx context.Context, principal Principal) ([]User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	actors, err := listActors(ctx, s.users, s.sorter)
	return actors, mapRepoError(err)
}

func (s *UserService) sortedUsers(ctx context.Context) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]User, len(users))
	copy(out, users)
	sortUsers(out, s.sorter)
	return out, nil
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	input := normalizeUserInput(params.Input)
	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID, "user_id", input.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "user creation failed", "user created", "account_type", user.AccountType)
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateUserInput(input)
	if strings.TrimSpace(input.Password) == "" {
		vErr.add("password", "password is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var hash string
	if hash, err = s.hashPassword(input.Password); err != nil {
		return
	}

	now := s.now()
	candidate := userFromInput(input)
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	user, err = s.users.CreateUser(ctx, candidate, hash)
	err = mapRepoError(err)
	return
}

// UpdateUser replaces the profile fields of an existing account for administrators.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID := strings.TrimSpace(params.UserID)
	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", params.Principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user update failed", "user updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var existing User
	if existing, err = s.users.GetUser(ctx, userID); err != nil {
		err = mapRepoError(err)
		return
	}

	input := params.Input
	input.UserID = userID
	input = normalizeUserInput(input)
	if err = validateUserInput(input).errOrNil(); err != nil {
		return
	}

	updated := userFromInput(input)
	if userID == params.Principal.UserID && existing.IsAdmin && !updated.IsAdmin {
		err = ErrSelfDemotion
		return
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, updated)
	err = mapRepoError(err)
	return
}

// ChangePassword resets the password of any account for administrators.
func (s *UserService) ChangePassword(ctx context.Context, principal Principal, userID, password string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID = strings.TrimSpace(userID)
	logger := s.loggerWith(ctx, "ChangePassword", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "password reset failed", "password reset")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(password) == "" {
		err = &ValidationError{FieldErrors: map[string]string{"password": "password is required"}}
		return
	}
	if _, err = s.users.GetUser(ctx, userID); err != nil {
		err = mapRepoError(err)
		return
	}

	var hash string
	if hash, err = s.hashPassword(password); err != nil {
		return
	}
	err = mapRepoError(s.users.UpdatePassword(ctx, userID, hash, s.now()))
	return
}

// DeleteUser removes an account. Administrators cannot remove themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID = strings.TrimSpace(userID)
	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user deletion failed", "user deleted")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if userID == principal.UserID {
		err = ErrSelfDeletion
		return
	}
	err = mapRepoError(s.users.DeleteUser(ctx, userID))
	return
}

// CurrentUser returns the account of the calling principal.
func (s *UserService) CurrentUser(ctx context.Context, principal Principal) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, principal.UserID)
	return user, mapRepoError(err)
}

// ChangeOwnPassword replaces the caller's password after checking the current one.
func (s *UserService) ChangeOwnPassword(ctx context.Context, principal Principal, current, next string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ChangeOwnPassword", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "password change failed", "password changed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if current == "" {
		vErr.add("currentPassword", "current password is required")
	}
	if strings.TrimSpace(next) == "" {
		vErr.add("newPassword", "new password is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	var creds UserCredentials
	if creds, err = s.users.GetUserCredentials(ctx, principal.UserID); err != nil {
		err = mapRepoError(err)
		return
	}
	if verr := s.verifyPassword(creds.PasswordHash, current); verr != nil {
		err = &ValidationError{FieldErrors: map[string]string{"currentPassword": "current password is incorrect"}}
		return
	}

	var hash string
	if hash, err = s.hashPassword(next); err != nil {
		return
	}
	err = mapRepoError(s.users.UpdatePassword(ctx, principal.UserID, hash, s.now()))
	return
}

// UpdateOwnPhone sets or clears the caller's phone number.
func (s *UserService) UpdateOwnPhone(ctx context.Context, principal Principal, phone string) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateOwnPhone", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "phone update failed", "phone updated")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	phone = normalizePhone(phone)
	vErr := &ValidationError{}
	checkVar(vErr, "phoneNumber", phone, "omitempty,phone")
	if err = vErr.errOrNil(); err != nil {
		return
	}

	if user, err = s.users.GetUser(ctx, principal.UserID); err != nil {
		err = mapRepoError(err)
		return
	}
	user.PhoneNumber = phone
	user.UpdatedAt = s.now()
	user, err = s.users.UpdateUser(ctx, user)
	err = mapRepoError(err)
	return
}

// EnsureAdministrator creates the bootstrap administrator when no account
// with userID exists. It reports whether an account was created.
func (s *UserService) EnsureAdministrator(ctx context.Context, userID, password string) (created bool, err error) {
	if err = s.ready(); err != nil {
		return
	}

	userID = strings.TrimSpace(userID)
	logger := s.loggerWith(ctx, "EnsureAdministrator", "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "administrator bootstrap failed", "administrator bootstrap checked", "created", created)
	}()

	if userID == "" || password == "" {
		err = &ValidationError{FieldErrors: map[string]string{"userid": "userid is required"}}
		return
	}

	_, err = s.users.GetUser(ctx, userID)
	err = mapRepoError(err)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return
	}

	var hash string
	if hash, err = s.hashPassword(password); err != nil {
		return
	}
	now := s.now()
	admin := User{
		UserID:      userID,
		Username:    "관리자",
		AccountType: AccountTypeAdmin,
		IsAdmin:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err = s.users.CreateUser(ctx, admin, hash); err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrAlreadyExists) {
			err = nil
		}
		return
	}
	created = true
	return
}

func listActors(ctx context.Context, users interface {
	ListUsers(ctx context.Context) ([]User, error)
}, sorter *attendance.NameSorter) ([]User, error) {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	actors := make([]User, 0, len(all))
	for _, u := range all {
		if u.AccountType == AccountTypeActor {
			actors = append(actors, u)
		}
	}
	sortUsers(actors, sorter)
	return actors, nil
}

func sortUsers(users []User, sorter *attendance.NameSorter) {
	if sorter == nil {
		sorter = attendance.KoreanSorter()
	}
	sort.SliceStable(users, func(i, j int) bool {
		if c := sorter.Compare(users[i].Username, users[j].Username); c != 0 {
			return c < 0
		}
		return users[i].UserID < users[j].UserID
	})
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		UserID:      strings.TrimSpace(input.UserID),
		Username:    strings.TrimSpace(input.Username),
		Password:    input.Password,
		PhoneNumber: normalizePhone(input.PhoneNumber),
		AccountType: strings.TrimSpace(input.AccountType),
		Role:        strings.ToUpper(strings.TrimSpace(input.Role)),
		IsAdmin:     input.IsAdmin,
	}
}

// normalizePhone drops the separators people type into phone numbers.
func normalizePhone(phone string) string {
	return strings.NewReplacer("-", "", " ", "", ".", "").Replace(strings.TrimSpace(phone))
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := validateStruct(input)
	if input.AccountType != "" {
		if _, ok := ParseAccountType(input.AccountType); !ok {
			vErr.add("accountType", "account type is invalid")
		}
	}
	return vErr
}

// userFromInput maps validated input onto a User. A missing account type
// becomes ADMIN for administrators and STAFF otherwise; the ADMIN type always
// carries the administrator flag.
func userFromInput(input UserInput) User {
	accountType, ok := ParseAccountType(input.AccountType)
	if !ok {
		accountType = AccountTypeStaff
		if input.IsAdmin {
			accountType = AccountTypeAdmin
		}
	}
	return User{
		UserID:      input.UserID,
		Username:    input.Username,
		PhoneNumber: input.PhoneNumber,
		AccountType: accountType,
		Role:        input.Role,
		IsAdmin:     input.IsAdmin || accountType == AccountTypeAdmin,
	}
}
