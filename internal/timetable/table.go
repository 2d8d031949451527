// Package timetable builds the monthly hour table: one row per day, one column
// per actor, with row, column and grand totals kept in sync with the cells.
package timetable

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/showflix-scheduler/internal/calendar"
)

// ErrUnknownActor reports a cell edit for a name without a column.
var ErrUnknownActor = errors.New("timetable: unknown actor")

// ParseHours converts a raw cell value into hours. Blank or non-numeric input
// counts as zero.
func ParseHours(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatHours renders hours for display: zero is blank, whole numbers have no
// decimals and anything else uses the shortest representation.
func FormatHours(h float64) string {
	if h == 0 {
		return ""
	}
	if h == math.Trunc(h) {
		return strconv.FormatFloat(h, 'f', 0, 64)
	}
	return strconv.FormatFloat(round(h), 'f', -1, 64)
}

// Entry is a stored hour cell.
type Entry struct {
	Date     string
	Username string
	Hours    float64
	Remarks  string
}

// Row is one day of the table.
type Row struct {
	Date    string
	Weekday string
	Cells   map[string]float64
	Total   float64
	Remarks string
}

// Cell returns the formatted value for actor on this row.
func (r Row) Cell(actor string) string {
	return FormatHours(r.Cells[actor])
}

// Table is the month view. Actors fixes the column order.
type Table struct {
	Month        calendar.Month
	Actors       []string
	Rows         []Row
	ColumnTotals map[string]float64
	GrandTotal   float64

	index map[string]int
}

// Build lays out every day of m. Repeated actor names keep one column at the
// first position. Entries for unknown actors or dates outside the month are
// ignored. The first non-blank remark of a date becomes the row remark.
func Build(m calendar.Month, actors []string, entries []Entry) *Table {
	actors = uniqueActors(actors)
	t := &Table{
		Month:        m,
		Actors:       actors,
		Rows:         make([]Row, 0, m.DaysIn()),
		ColumnTotals: make(map[string]float64, len(actors)),
		index:        make(map[string]int, m.DaysIn()),
	}

	first := m.First()
	for d := 0; d < m.DaysIn(); d++ {
		day := first.AddDate(0, 0, d)
		date := calendar.FormatDate(day)
		t.index[date] = len(t.Rows)
		t.Rows = append(t.Rows, Row{
			Date:    date,
			Weekday: calendar.KoreanWeekday(day.Weekday()),
			Cells:   make(map[string]float64, len(actors)),
		})
	}

	known := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		known[a] = struct{}{}
		t.ColumnTotals[a] = 0
	}

	for _, e := range entries {
		i, ok := t.index[e.Date]
		if !ok {
			continue
		}
		row := &t.Rows[i]
		if row.Remarks == "" && strings.TrimSpace(e.Remarks) != "" {
			row.Remarks = strings.TrimSpace(e.Remarks)
		}
		if _, ok := known[e.Username]; !ok {
			continue
		}
		row.Cells[e.Username] = e.Hours
	}

	t.recompute()
	return t
}

// Set edits a single cell from raw input and refreshes every total.
func (t *Table) Set(date, actor, raw string) error {
	i, ok := t.index[date]
	if !ok {
		return fmt.Errorf("timetable: date %s is not in %s", date, t.Month)
	}
	if !t.hasActor(actor) {
		return fmt.Errorf("%w %q", ErrUnknownActor, actor)
	}
	hours := ParseHours(raw)
	if hours == 0 {
		delete(t.Rows[i].Cells, actor)
	} else {
		t.Rows[i].Cells[actor] = hours
	}
	t.recompute()
	return nil
}

// Row looks up the row for date.
func (t *Table) Row(date string) (Row, bool) {
	i, ok := t.index[date]
	if !ok {
		return Row{}, false
	}
	return t.Rows[i], true
}

func uniqueActors(actors []string) []string {
	seen := make(map[string]struct{}, len(actors))
	out := make([]string, 0, len(actors))
	for _, a := range actors {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (t *Table) hasActor(actor string) bool {
	for _, a := range t.Actors {
		if a == actor {
			return true
		}
	}
	return false
}

func (t *Table) recompute() {
	for _, a := range t.Actors {
		t.ColumnTotals[a] = 0
	}
	t.GrandTotal = 0
	for i := range t.Rows {
		row := &t.Rows[i]
		row.Total = 0
		for _, a := range t.Actors {
			v := row.Cells[a]
			row.Total += v
			t.ColumnTotals[a] += v
		}
		row.Total = round(row.Total)
		t.GrandTotal += row.Total
	}
	for _, a := range t.Actors {
		t.ColumnTotals[a] = round(t.ColumnTotals[a])
	}
	t.GrandTotal = round(t.GrandTotal)
}

// Stats summarises one user's month.
type Stats struct {
	TotalDays  int
	TotalHours string
}

// MonthlyStats counts the distinct days with positive hours and sums them.
func MonthlyStats(entries []Entry) Stats {
	days := make(map[string]struct{})
	var total float64
	for _, e := range entries {
		if e.Hours <= 0 {
			continue
		}
		days[e.Date] = struct{}{}
		total += e.Hours
	}
	return Stats{TotalDays: len(days), TotalHours: fmt.Sprintf("%.1f", total)}
}

// round trims float noise to two decimals.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
