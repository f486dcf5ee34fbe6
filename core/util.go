package core

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Input and display layouts.
const (
	DateLayout     = "02-01-2006"
	DateTimeLayout = "02-01-2006 15:04"
)

var yesWords = map[string]bool{"y": true, "yes": true, "true": true, "o": true, "oui": true}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanPhone removes every space from a phone number.
func CleanPhone(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// IsYes reports whether s is one of the accepted affirmative words.
func IsYes(s string) bool {
	return yesWords[CleanString(s, true /* lower */)]
}

// ParseDate parses DD-MM-YYYY, "/" is accepted as separator.
func ParseDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(CleanString(s), "/", "-")
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q (expected DD-MM-YYYY)", s)
	}
	return t, nil
}

// ParseDateTime parses DD-MM-YYYY HH:MM, "/" is accepted as date separator.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.ReplaceAll(CleanString(s), "/", "-")
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q (expected DD-MM-YYYY HH:MM)", s)
	}
	return t, nil
}

// Today returns the current date at midnight, local time.
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// FormatBool renders booleans the way lists show them.
func FormatBool(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
