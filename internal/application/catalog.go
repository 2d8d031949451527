package application

import "strings"

// AccountType classifies a staff account.
type AccountType string

const (
	AccountTypeActor   AccountType = "ACTOR"
	AccountTypeStaff   AccountType = "STAFF"
	AccountTypeCaptain AccountType = "CAPTAIN"
	AccountTypeAdmin   AccountType = "ADMIN"
)

var accountTypeLabels = map[AccountType]string{
	AccountTypeActor:   "배우",
	AccountTypeStaff:   "스텝",
	AccountTypeCaptain: "캡틴",
	AccountTypeAdmin:   "관리자",
}

// AccountTypes lists every account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeActor, AccountTypeStaff, AccountTypeCaptain, AccountTypeAdmin}
}

// ParseAccountType accepts a code in any case or a Korean display name.
func ParseAccountType(raw string) (AccountType, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	code := AccountType(strings.ToUpper(trimmed))
	if _, ok := accountTypeLabels[code]; ok {
		return code, true
	}
	for t, label := range accountTypeLabels {
		if label == trimmed {
			return t, true
		}
	}
	return "", false
}

// DisplayName returns the Korean label, or the raw code when unknown.
func (t AccountType) DisplayName() string {
	if label, ok := accountTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// RoleOption is a selectable attendance role.
type RoleOption struct {
	Value string
	Label string
}

var roleCatalogue = []RoleOption{
	{Value: "DOOR", Label: "도어"},
	{Value: "HOLEMAN", Label: "홀맨"},
	{Value: "OPER", Label: "오퍼"},
	{Value: "HELPER", Label: "헬퍼"},
	{Value: "KITCHEN", Label: "주방"},
	{Value: "MALE1", Label: "남1"},
	{Value: "MALE2", Label: "남2"},
	{Value: "MALE3", Label: "남3"},
	{Value: "FEMALE1", Label: "여1"},
	{Value: "FEMALE2", Label: "여2"},
	{Value: "FEMALE3", Label: "여3"},
}

// Roles returns the role catalogue in display order.
func Roles() []RoleOption {
	return append([]RoleOption(nil), roleCatalogue...)
}

// ValidRole reports whether code is empty or a known role.
func ValidRole(code string) bool {
	if code == "" {
		return true
	}
	for _, r := range roleCatalogue {
		if r.Value == code {
			return true
		}
	}
	return false
}

// RoleLabel returns the Korean label for code.
func RoleLabel(code string) string {
	for _, r := range roleCatalogue {
		if r.Value == code {
			return r.Label
		}
	}
	return code
}

// ReservationStatus is the lifecycle state of a special reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// ParseReservationStatus accepts a status code in any case.
func ParseReservationStatus(raw string) (ReservationStatus, bool) {
	s := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled:
		return s, true
	}
	return "", false
}

// HighlightType is the row colour used by the reservation list.
type HighlightType string

const (
	HighlightNone   HighlightType = "NONE"
	HighlightGreen  HighlightType = "GREEN"
	HighlightYellow HighlightType = "YELLOW"
	HighlightBlue   HighlightType = "BLUE"
	HighlightRed    HighlightType = "RED"
)

// ParseHighlightType accepts a highlight code in any case.
func ParseHighlightType(raw string) (HighlightType, bool) {
	h := HighlightType(strings.ToUpper(strings.TrimSpace(raw)))
	switch h {
	case HighlightNone, HighlightGreen, HighlightYellow, HighlightBlue, HighlightRed:
		return h, true
	}
	return "", false
}
