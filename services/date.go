package services

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format of every date exchanged with clients (HTML5 date inputs)
const DateLayout = "2006-01-02"

// ParseDay reads an optional AAAA-MM-JJ date at midnight in loc. An empty
// string gives nil.
func ParseDay(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("date invalide %q (AAAA-MM-JJ attendu)", raw)
	}
	return &t, nil
}
