package calendar

import "time"

// GridSize is the number of cells in a month grid (six Sunday-first weeks).
const GridSize = 42

// Cell is one day of a month grid. Cells outside the requested month are
// dimmed neighbours and never carry records.
type Cell[T any] struct {
	Year           int
	Month          time.Month
	Day            int
	DateStr        string
	Weekday        time.Weekday
	IsCurrentMonth bool
	IsToday        bool
	Records        []T
}

// Grid is a 6x7 month view.
type Grid[T any] struct {
	Month Month
	Cells [GridSize]Cell[T]
}

// BuildGrid lays out the month starting on the Sunday on or before the 1st.
// today is compared by calendar date in its own location; byDate maps
// YYYY-MM-DD keys to the records shown on that day.
func BuildGrid[T any](m Month, today time.Time, byDate map[string][]T) Grid[T] {
	grid := Grid[T]{Month: m}
	todayStr := ""
	if !today.IsZero() {
		todayStr = FormatDate(today)
	}

	start := m.First().AddDate(0, 0, -m.FirstWeekdayIndex())
	for i := 0; i < GridSize; i++ {
		day := start.AddDate(0, 0, i)
		dateStr := FormatDate(day)
		cell := Cell[T]{
			Year:           day.Year(),
			Month:          day.Month(),
			Day:            day.Day(),
			DateStr:        dateStr,
			Weekday:        day.Weekday(),
			IsCurrentMonth: day.Year() == m.Year && day.Month() == m.Month,
			IsToday:        dateStr == todayStr,
		}
		if cell.IsCurrentMonth {
			if records := byDate[dateStr]; len(records) > 0 {
				cell.Records = append([]T(nil), records...)
			}
		}
		grid.Cells[i] = cell
	}
	return grid
}

// Weeks splits the grid into six rows of seven cells.
func (g Grid[T]) Weeks() [][]Cell[T] {
	weeks := make([][]Cell[T], 0, GridSize/7)
	for i := 0; i < GridSize; i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

// CurrentMonthDays counts the cells belonging to the requested month.
func (g Grid[T]) CurrentMonthDays() int {
	n := 0
	for _, c := range g.Cells {
		if c.IsCurrentMonth {
			n++
		}
	}
	return n
}
