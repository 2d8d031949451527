// Package attendance derives per-day and per-user views from a month of
// selected-date records.
package attendance

import (
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Confirmed is the flag value of a locked record.
const Confirmed = "Y"

// Record is one user's availability entry for one date.
type Record struct {
	Date      string
	UserID    string
	UserName  string
	Role      string
	Remarks   string
	Confirmed string
	OpenHope  bool
}

// IsConfirmed reports whether the record has been locked by an administrator.
func (r Record) IsConfirmed() bool {
	return strings.EqualFold(r.Confirmed, Confirmed)
}

// Attendee is a distinct user appearing in a set of records.
type Attendee struct {
	UserID   string
	UserName string
	Days     int
}

// Summary holds the month dashboard figures.
type Summary struct {
	UniqueUsers     int
	TotalSelections int
	OpenHopeCount   int
	ConfirmedCount  int
	AveragePerDay   float64
}

// GroupByDate buckets records by date keeping input order within a day.
func GroupByDate(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.Date] = append(out[r.Date], r)
	}
	return out
}

// GroupByUser buckets records by user id keeping input order.
func GroupByUser(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.UserID] = append(out[r.UserID], r)
	}
	return out
}

// Dedupe keeps a single record per (date, userId), the last one seen winning.
// The position of the first occurrence is preserved.
func Dedupe(records []Record) []Record {
	type key struct{ date, user string }
	index := make(map[key]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := key{r.Date, r.UserID}
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// VisibleTo filters records for a viewer. Administrators see everything;
// other users see confirmed records and their own.
func VisibleTo(records []Record, userID string, isAdmin bool) []Record {
	if isAdmin {
		return append([]Record(nil), records...)
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsConfirmed() || (userID != "" && r.UserID == userID) {
			out = append(out, r)
		}
	}
	return out
}

// UniqueAttendees returns one entry per user id. The first record seen names
// the attendee. Results are ordered by name using sorter, then by user id.
func UniqueAttendees(records []Record, sorter *NameSorter) []Attendee {
	index := make(map[string]int)
	out := make([]Attendee, 0)
	for _, r := range records {
		if i, ok := index[r.UserID]; ok {
			out[i].Days++
			continue
		}
		index[r.UserID] = len(out)
		out = append(out, Attendee{UserID: r.UserID, UserName: r.UserName, Days: 1})
	}

	if sorter == nil {
		sorter = KoreanSorter()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := sorter.Compare(out[i].UserName, out[j].UserName); c != 0 {
			return c < 0
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Summarize computes dashboard figures over days days.
func Summarize(records []Record, days int) Summary {
	users := make(map[string]struct{})
	s := Summary{TotalSelections: len(records)}
	for _, r := range records {
		users[r.UserID] = struct{}{}
		if r.OpenHope {
			s.OpenHopeCount++
		}
		if r.IsConfirmed() {
			s.ConfirmedCount++
		}
	}
	s.UniqueUsers = len(users)
	if days > 0 && len(records) > 0 {
		s.AveragePerDay = math.Round(float64(len(records))/float64(days)*10) / 10
	}
	return s
}

// NameSorter compares display names with a locale-aware collator. A
// collate.Collator is not safe for concurrent use, hence the mutex.
type NameSorter struct {
	mu       sync.Mutex
	collator *collate.Collator
}

// NewNameSorter builds a sorter for the given language tag.
func NewNameSorter(tag language.Tag) *NameSorter {
	return &NameSorter{collator: collate.New(tag)}
}

// KoreanSorter returns a sorter for ko-KR ordering.
func KoreanSorter() *NameSorter {
	return NewNameSorter(language.Korean)
}

// Compare returns -1, 0 or 1.
func (s *NameSorter) Compare(a, b string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collator.CompareString(a, b)
}
