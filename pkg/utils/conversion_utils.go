package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a valid integer: %w", s, err)
	}
	return num, nil
}

// ParseTimeParam accepts RFC3339 timestamps or plain YYYY-MM-DD dates (as UTC midnight).
func ParseTimeParam(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("'%s' is neither RFC3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}
