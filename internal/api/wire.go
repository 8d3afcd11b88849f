package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
)

// Wire formats: expiration dates travel as "YYYY-MM-DD", timestamps as
// RFC 3339. Absent optional values are JSON null.

func wireDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}

func parseWireDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration_date %q, want YYYY-MM-DD", *s)
	}
	return &d, nil
}

func wireTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// matchQuery reports whether any field contains q, case-insensitively.
// An empty query matches everything.
func matchQuery(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
