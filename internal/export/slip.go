package export

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

var (
	// ErrInvalidSignature is returned when a slip payload fails verification.
	ErrInvalidSignature = errors.New("export: invalid slip signature")
	// ErrFontRequired is returned when slip text lies outside Latin-1 and no
	// UTF-8 font is configured.
	ErrFontRequired = errors.New("export: a UTF-8 font is required for non-Latin text")
)

// Slip carries the reservation fields printed on a PDF slip.
type Slip struct {
	ID              string
	Date            string
	Time            string
	CustomerName    string
	PeopleCount     int
	ContactInfo     string
	Status          string
	SpecialRemarks  string
	Notes           string
	ExpectedRevenue int64
}

// SlipOptions controls signing and rendering.
type SlipOptions struct {
	Secret      []byte
	FontPath    string
	GeneratedAt time.Time
}

// SignPayload joins fields with '|' and appends an HMAC-SHA256 signature.
func SignPayload(secret []byte, fields ...string) string {
	data := strings.Join(fields, "|")
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(data))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return data + "|" + sig
}

// VerifyPayload checks a signed payload and returns its fields.
func VerifyPayload(secret []byte, payload string) ([]string, error) {
	i := strings.LastIndex(payload, "|")
	if i < 0 {
		return nil, ErrInvalidSignature
	}
	data, sig := payload[:i], payload[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(data))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return nil, ErrInvalidSignature
	}
	return strings.Split(data, "|"), nil
}

func (s Slip) latin1() bool {
	for _, field := range []string{s.ID, s.Date, s.Time, s.CustomerName, s.ContactInfo, s.SpecialRemarks, s.Notes} {
		for _, r := range field {
			if r > unicode.MaxLatin1 {
				return false
			}
		}
	}
	return true
}

// SlipFileName names the PDF for a reservation.
func SlipFileName(id string) string {
	return "reservation-" + id + ".pdf"
}

// WriteReservationSlip renders a one page A4 slip with a signed QR code.
// Without opts.FontPath the built-in font is used, which only covers
// Latin-1; any other text fails with ErrFontRequired.
func WriteReservationSlip(w io.Writer, slip Slip, opts SlipOptions) error {
	if strings.TrimSpace(slip.ID) == "" {
		return errors.New("export: slip id is required")
	}
	if opts.FontPath == "" && !slip.latin1() {
		return ErrFontRequired
	}
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	payload := SignPayload(opts.Secret, slip.ID, slip.Date, slip.Time)
	qrPNG, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("export: encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font("slip", "", opts.FontPath)
		family = "slip"
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	if opts.FontPath != "" {
		pdf.SetFont(family, "", 18)
	} else {
		pdf.SetFont(family, "B", 18)
	}
	pdf.Cell(0, 12, tr("Special Reservation"))
	pdf.Ln(16)

	status := slip.Status
	if opts.FontPath != "" {
		status = StatusLabel(slip.Status)
	}

	pdf.SetFont(family, "", 12)
	lines := [][2]string{
		{"Reservation", slip.ID},
		{"Date", slip.Date},
		{"Time", slip.Time},
		{"Customer", slip.CustomerName},
		{"People", fmt.Sprintf("%d", slip.PeopleCount)},
		{"Contact", slip.ContactInfo},
		{"Status", status},
		{"Expected revenue", fmt.Sprintf("%d KRW", slip.ExpectedRevenue)},
		{"Remarks", slip.SpecialRemarks},
		{"Notes", slip.Notes},
	}
	for _, l := range lines {
		if strings.TrimSpace(l[1]) == "" {
			continue
		}
		pdf.CellFormat(45, 8, tr(l[0]), "", 0, "L", false, 0, "")
		pdf.MultiCell(90, 8, tr(l[1]), "", "L", false)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 45, 45, false, imageOpts, 0, "")

	pdf.SetY(-25)
	pdf.SetFont(family, "", 8)
	pdf.Cell(0, 6, tr("Generated "+generated.Format("2006-01-02 15:04")))

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("export: render slip: %w", err)
	}
	return pdf.Output(w)
}
