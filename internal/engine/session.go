package engine

import (
	"fmt"
	"time"
)

// Session describes the daily trading window of an exchange.
type Session struct {
	openMinute  int
	closeMinute int
	loc         *time.Location
}

// NewSession parses "15:04" open and close clocks in the given
// timezone. The window is inclusive of the open minute and exclusive
// of the close minute.
func NewSession(open, close, timezone string) (*Session, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	openMin, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("parsing session open: %w", err)
	}
	closeMin, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("parsing session close: %w", err)
	}
	if closeMin <= openMin {
		return nil, fmt.Errorf("session close %s is not after open %s", close, open)
	}

	return &Session{openMinute: openMin, closeMinute: closeMin, loc: loc}, nil
}

func parseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether t falls inside the trading window on a
// weekday.
func (s *Session) Contains(t time.Time) bool {
	local := t.In(s.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= s.openMinute && minute < s.closeMinute
}

// Location returns the session timezone.
func (s *Session) Location() *time.Location {
	return s.loc
}
