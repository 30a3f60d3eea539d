package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cafedesk/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^\S+@\S+$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone = regexp.MustCompile(`^[0-9+()\- ]{7,20}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Page parses a 1-based page number; anything unusable becomes 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ID validates a backend resource identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Guests parses a party size; zero and negatives are rejected.
func Guests(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 50 {
		return 0, false
	}
	return n, true
}

func Price(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func Category(s string) (domain.Category, bool) {
	c := domain.Category(strings.TrimSpace(s))
	return c, c.Valid()
}

func Slot(s string) (domain.TimeSlot, bool) {
	t := domain.TimeSlot(strings.TrimSpace(s))
	return t, t.Valid()
}

func Date(s string) (domain.Date, bool) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, false
	}
	return d, true
}

// Bool reads checkbox and select values; only "true", "on" and "1" are true.
func Bool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1":
		return true
	}
	return false
}
