package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"boutique/internal/core"
)

// parsePeriod reads ?month=YYYY-MM. A missing value selects the month of now;
// a malformed one is an error.
func parsePeriod(r *http.Request, now time.Time) (core.Period, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.Period{Year: now.Year(), Month: int(now.Month())}, nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return core.Period{}, fmt.Errorf("month must look like YYYY-MM, got %q", v)
	}
	return core.Period{Year: t.Year(), Month: int(t.Month())}, nil
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
