package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"whitepalace/src/config"

	"github.com/google/uuid"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// GenerateOrderNumber returns a human-readable unique order number, e.g.
// ORD-1735689600-3F2A1B9C.
func GenerateOrderNumber() string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return strings.ToUpper(fmt.Sprintf("ORD-%d-%s", time.Now().Unix(), frag))
}

func GenerateReservationNumber() string {
	frag := strings.Split(uuid.NewString(), "-")[0]
	return strings.ToUpper(fmt.Sprintf("RES-%d-%s", time.Now().Unix(), frag))
}

// CleanPhoneNumber strips everything except digits.
func CleanPhoneNumber(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(config.CLOCK_PARSE_FORMAT, clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate validates a "YYYY-MM-DD" date string and returns it normalized.
func ParseDate(date string) (string, error) {
	t, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	if err != nil {
		return "", err
	}
	return t.Format(config.DATE_PARSE_FORMAT), nil
}

// ReservationEnd returns the wall-clock end of a reservation's seating
// window.
func ReservationEnd(date, clock string, durationMinutes int) (time.Time, error) {
	start, err := time.ParseInLocation(config.DATE_PARSE_FORMAT+" "+config.CLOCK_PARSE_FORMAT, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute), nil
}
