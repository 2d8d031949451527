package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/showflix-scheduler/internal/calendar"
)

const maxBodyBytes = 1 << 20

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// monthFromQuery reads the required 1-based year and month query parameters.
func monthFromQuery(values url.Values) (calendar.Month, error) {
	year, err := strconv.Atoi(strings.TrimSpace(values.Get("year")))
	if err != nil {
		return calendar.Month{}, errInvalidMonth
	}
	month, err := strconv.Atoi(strings.TrimSpace(values.Get("month")))
	if err != nil {
		return calendar.Month{}, errInvalidMonth
	}
	m, err := calendar.NewMonth(year, month)
	if err != nil {
		return calendar.Month{}, errInvalidMonth
	}
	return m, nil
}

// writeAttachment sends a rendered export as a download. The name is sent in
// both the ASCII fallback and the RFC 5987 form so Korean names survive.
func writeAttachment(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = `attachment; filename="export"; filename*=UTF-8''` + url.PathEscape(filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// flexString accepts a JSON string or number. Clients send hours and record
// ids both ways.
type flexString string

func (v *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = flexString(n.String())
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
