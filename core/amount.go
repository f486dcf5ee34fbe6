package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Amount is a money amount in cents.
type Amount int64

var errInvalidAmount = errors.New("amount must be a positive number with at most 2 decimals")

// ParseAmount parses "1500", "1500.5" or "1500,50" into an Amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(CleanString(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, errInvalidAmount
	}
	units, cents := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		units, cents = s[:i], s[i+1:]
	}
	if !isDigits(units) || len(cents) > 2 || (cents != "" && !isDigits(cents)) {
		return 0, errInvalidAmount
	}
	for len(cents) < 2 {
		cents += "0"
	}
	u, err := strconv.ParseInt(units, 10, 64)
	if err != nil || u > (math.MaxInt64-99)/100 {
		return 0, errInvalidAmount
	}
	c, err := strconv.ParseInt(cents, 10, 64)
	if err != nil {
		return 0, errInvalidAmount
	}
	return Amount(u*100 + c), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (a Amount) String() string {
	return strconv.FormatInt(int64(a)/100, 10) + "." + pad2(int64(a)%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
