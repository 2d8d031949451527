package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/calendar"
	"github.com/example/showflix-scheduler/internal/timetable"
)

func TestEscapeCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"", ""},
		{" leading space", " leading space"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{"cr\rhere", "\"cr\rhere\""},
		{"홍길동", "홍길동"},
	}
	for _, tc := range tests {
		if got := EscapeCSV(tc.in); got != tc.want {
			t.Errorf("EscapeCSV(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteReservationsCSV(t *testing.T) {
	t.Parallel()

	people := 4
	var buf bytes.Buffer
	err := WriteReservationsCSV(&buf, []ReservationRow{
		{
			Date:           "2024-03-01",
			Time:           "19:00",
			SpecialRemarks: "생일, 케이크",
			CustomerName:   "김철수",
			PeopleCount:    &people,
			PaymentStatus:  "완료",
			ContactInfo:    "010-1234-5678",
			Status:         "CONFIRMED",
		},
		{Date: "2024-03-02", CustomerName: "이영희", Status: "PENDING"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\ufeff날짜,시간,특이사항,이름,인원(명),결제여부,연락처,비고,상태\r\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[1] != `2024-03-01,19:00,"생일, 케이크",김철수,4,완료,010-1234-5678,,확정` {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if lines[2] != "2024-03-02,,,이영희,,,,,대기" {
		t.Fatalf("unexpected second row %q", lines[2])
	}
}

func TestWriteHourTableCSV(t *testing.T) {
	t.Parallel()

	m, _ := calendar.NewMonth(2024, 2)
	table := timetable.Build(m, []string{"가", "나"}, []timetable.Entry{
		{Date: "2024-02-01", Username: "가", Hours: 2, Remarks: "a,b"},
		{Date: "2024-02-01", Username: "나", Hours: 1.5},
	})

	var buf bytes.Buffer
	if err := WriteHourTableCSV(&buf, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(buf.String(), "\ufeff"), "\r\n"), "\r\n")
	if len(lines) != 1+29+1 {
		t.Fatalf("expected 31 lines, got %d", len(lines))
	}
	if lines[0] != "날짜,요일,가,나,합계,특이사항" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != `2024-02-01,목,2,1.5,3.5,"a,b"` {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if lines[len(lines)-1] != "합계,,2,1.5,3.5," {
		t.Fatalf("unexpected totals row %q", lines[len(lines)-1])
	}
	if HourTableFileName(table) != "스케줄표_202402.csv" {
		t.Fatalf("unexpected file name %s", HourTableFileName(table))
	}
}

func TestReservationFileName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	if got := ReservationFileName(ts); got != "특수예약관리_20240309_0705.csv" {
		t.Fatalf("unexpected file name %s", got)
	}
}

func TestSignAndVerifyPayload(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	payload := SignPayload(secret, "r-1", "2024-03-01", "19:00")

	fields, err := VerifyPayload(secret, payload)
	if err != nil {
		t.Fatalf("expected payload to verify: %v", err)
	}
	if strings.Join(fields, "|") != "r-1|2024-03-01|19:00" {
		t.Fatalf("unexpected fields %v", fields)
	}

	if _, err := VerifyPayload([]byte("other"), payload); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for wrong secret, got %v", err)
	}
	tampered := strings.Replace(payload, "r-1", "r-2", 1)
	if _, err := VerifyPayload(secret, tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for tampered payload, got %v", err)
	}
}

func TestWriteReservationSlip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteReservationSlip(&buf, Slip{
		ID:              "r-1",
		Date:            "2024-03-01",
		Time:            "19:00",
		CustomerName:    "Kim",
		PeopleCount:     3,
		Status:          "PENDING",
		ExpectedRevenue: 150000,
	}, SlipOptions{Secret: []byte("secret"), GeneratedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF output, got %q", buf.Bytes()[:min(16, buf.Len())])
	}

	if err := WriteReservationSlip(&buf, Slip{}, SlipOptions{}); err == nil {
		t.Fatal("expected error for slip without id")
	}
}

func TestWriteReservationSlipNeedsFontForHangul(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteReservationSlip(&buf, Slip{ID: "r-1", Date: "2024-03-01", Time: "19:00", CustomerName: "김철수"}, SlipOptions{Secret: []byte("secret")})
	if !errors.Is(err, ErrFontRequired) {
		t.Fatalf("expected ErrFontRequired, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %d bytes", buf.Len())
	}

	if err := WriteReservationSlip(&buf, Slip{ID: "r-1", CustomerName: "Café Müller"}, SlipOptions{Secret: []byte("secret")}); err != nil {
		t.Fatalf("latin-1 text should render without a font: %v", err)
	}
}
