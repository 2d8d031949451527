// Package export renders reservations and hour tables as downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/timetable"
)

const utf8BOM = "\ufeff"

// EscapeCSV quotes a field that contains a comma, a double quote or a line
// break, doubling any embedded quotes. Other fields are returned unchanged.
func EscapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// CSVWriter emits a BOM-prefixed, CRLF-terminated CSV stream that spreadsheet
// tools open as UTF-8.
type CSVWriter struct {
	w       *bufio.Writer
	started bool
	err     error
}

// NewCSVWriter wraps w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// WriteRow writes one record. Errors are sticky.
func (c *CSVWriter) WriteRow(fields ...string) error {
	if c.err != nil {
		return c.err
	}
	if !c.started {
		c.started = true
		if _, c.err = c.w.WriteString(utf8BOM); c.err != nil {
			return c.err
		}
	}
	for i, f := range fields {
		if i > 0 {
			if c.err = c.w.WriteByte(','); c.err != nil {
				return c.err
			}
		}
		if _, c.err = c.w.WriteString(EscapeCSV(f)); c.err != nil {
			return c.err
		}
	}
	_, c.err = c.w.WriteString("\r\n")
	return c.err
}

// Flush writes buffered data to the underlying writer.
func (c *CSVWriter) Flush() error {
	if c.err != nil {
		return c.err
	}
	c.err = c.w.Flush()
	return c.err
}

// ReservationHeaders is the column layout of the reservation export.
var ReservationHeaders = []string{"날짜", "시간", "특이사항", "이름", "인원(명)", "결제여부", "연락처", "비고", "상태"}

// ReservationRow is the flattened view of a reservation used for export.
type ReservationRow struct {
	Date           string
	Time           string
	SpecialRemarks string
	CustomerName   string
	PeopleCount    *int
	PaymentStatus  string
	ContactInfo    string
	Notes          string
	Status         string
}

// StatusLabel maps a reservation status code to its Korean label.
func StatusLabel(status string) string {
	switch strings.ToUpper(status) {
	case "PENDING":
		return "대기"
	case "CONFIRMED":
		return "확정"
	case "COMPLETED":
		return "완료"
	case "CANCELLED":
		return "취소"
	default:
		return status
	}
}

// WriteReservationsCSV writes the header followed by one line per row.
func WriteReservationsCSV(w io.Writer, rows []ReservationRow) error {
	cw := NewCSVWriter(w)
	if err := cw.WriteRow(ReservationHeaders...); err != nil {
		return err
	}
	for _, r := range rows {
		people := ""
		if r.PeopleCount != nil {
			people = strconv.Itoa(*r.PeopleCount)
		}
		if err := cw.WriteRow(
			r.Date,
			r.Time,
			r.SpecialRemarks,
			r.CustomerName,
			people,
			r.PaymentStatus,
			r.ContactInfo,
			r.Notes,
			StatusLabel(r.Status),
		); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// ReservationFileName names a reservation export created at now.
func ReservationFileName(now time.Time) string {
	return fmt.Sprintf("특수예약관리_%s.csv", now.Format("20060102_1504"))
}

// HourTableFileName names an hour table export for the table's month.
func HourTableFileName(table *timetable.Table) string {
	return fmt.Sprintf("스케줄표_%04d%02d.csv", table.Month.Year, table.Month.Number())
}

// WriteHourTableCSV writes the table with a trailing totals line.
func WriteHourTableCSV(w io.Writer, table *timetable.Table) error {
	cw := NewCSVWriter(w)

	header := make([]string, 0, len(table.Actors)+4)
	header = append(header, "날짜", "요일")
	header = append(header, table.Actors...)
	header = append(header, "합계", "특이사항")
	if err := cw.WriteRow(header...); err != nil {
		return err
	}

	for _, row := range table.Rows {
		line := make([]string, 0, len(header))
		line = append(line, row.Date, row.Weekday)
		for _, a := range table.Actors {
			line = append(line, row.Cell(a))
		}
		line = append(line, timetable.FormatHours(row.Total), row.Remarks)
		if err := cw.WriteRow(line...); err != nil {
			return err
		}
	}

	totals := make([]string, 0, len(header))
	totals = append(totals, "합계", "")
	for _, a := range table.Actors {
		totals = append(totals, timetable.FormatHours(table.ColumnTotals[a]))
	}
	totals = append(totals, timetable.FormatHours(table.GrandTotal), "")
	if err := cw.WriteRow(totals...); err != nil {
		return err
	}
	return cw.Flush()
}
