package attendance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownWeekday is returned for day names outside Sunday..Saturday.
	ErrUnknownWeekday = errors.New("unknown weekday")
	// ErrInvalidClock is returned for start times not in 24h HH:MM form.
	ErrInvalidClock = errors.New("invalid start time")
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a full English day name, in any case, to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
	}
	return day, nil
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return hours*60 + minutes, nil
}
