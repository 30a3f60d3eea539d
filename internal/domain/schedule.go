package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts "YYYY-MM-DD" and ISO timestamps whose first ten
// characters are the calendar day, which is how the backend echoes dates.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) && s[len(dateLayout)] == 'T' {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeSlot is a one-hour reservation band such as "13:00-14:00".
type TimeSlot string

// TimeSlots are the twelve bookable bands between 08:00 and 20:00.
var TimeSlots = []TimeSlot{
	"08:00-09:00", "09:00-10:00", "10:00-11:00", "11:00-12:00",
	"12:00-13:00", "13:00-14:00", "14:00-15:00", "15:00-16:00",
	"16:00-17:00", "17:00-18:00", "18:00-19:00", "19:00-20:00",
}

func (s TimeSlot) Valid() bool {
	for _, k := range TimeSlots {
		if s == k {
			return true
		}
	}
	return false
}

// StartHour reads the hour before the first colon.
func (s TimeSlot) StartHour() (int, bool) {
	head, _, found := strings.Cut(string(s), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return h, true
}

// IsPast reports whether a reservation counts as completed at now: any
// earlier day, or today once the wall-clock hour reaches the slot's start
// hour.
func IsPast(date Date, slot TimeSlot, now time.Time) bool {
	today := DateOf(now)
	if date.Before(today) {
		return true
	}
	if date.After(today) {
		return false
	}
	h, ok := slot.StartHour()
	if !ok {
		return false
	}
	return now.Hour() >= h
}

// SlotStarted reports whether slot can no longer be booked for selected.
// Only today's slots are ever disabled.
func SlotStarted(selected Date, slot TimeSlot, now time.Time) bool {
	if selected.IsZero() || selected != DateOf(now) {
		return false
	}
	h, ok := slot.StartHour()
	if !ok {
		return false
	}
	return h <= now.Hour()
}
