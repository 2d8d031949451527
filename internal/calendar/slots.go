package calendar

import (
	"fmt"
	"strings"
)

// SlotView selects which half-hour grid a time-slot table uses.
type SlotView string

const (
	// EveningView runs 16:00 through 22:00.
	EveningView SlotView = "evening"
	// DaytimeView runs 12:00 through 21:00.
	DaytimeView SlotView = "daytime"
)

// ParseSlotView maps a query value onto a view, defaulting to EveningView.
func ParseSlotView(value string) SlotView {
	if strings.EqualFold(strings.TrimSpace(value), string(DaytimeView)) {
		return DaytimeView
	}
	return EveningView
}

// Slots returns the HH:MM labels of the view in ascending order.
func Slots(view SlotView) []string {
	first, last := 16, 22
	if view == DaytimeView {
		first, last = 12, 21
	}
	out := make([]string, 0, (last-first)*2+1)
	for hour := first; hour <= last; hour++ {
		out = append(out, fmt.Sprintf("%02d:00", hour))
		if hour < last {
			out = append(out, fmt.Sprintf("%02d:30", hour))
		}
	}
	return out
}

// ValidSlot reports whether slot is one of the view's labels.
func ValidSlot(view SlotView, slot string) bool {
	for _, s := range Slots(view) {
		if s == slot {
			return true
		}
	}
	return false
}
