// Package businessday resolves "today" in the venue's fixed operating
// timezone. Every component that scopes data to a business day goes through a
// Clock; ad hoc date math against the host timezone drifts the day boundary
// (and with it the ticket numbering reset) whenever the server runs in a
// different zone than the venue.
package businessday

import (
	"fmt"
	"time"
)

const DefaultTimezone = "Asia/Bangkok"

// DayKey format, also the wire format of Ticket.BusinessDay.
const keyLayout = "2006-01-02"

type Clock struct {
	loc *time.Location
}

func NewClock(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load business timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc}, nil
}

func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// DayKey returns the business-day key (YYYY-MM-DD) for an instant.
func (c *Clock) DayKey(at time.Time) string {
	return at.In(c.loc).Format(keyLayout)
}

// TodayWindow returns the half-open interval [00:00, 24:00) of the business
// day containing now.
func (c *Clock) TodayWindow(now time.Time) (time.Time, time.Time) {
	return c.WindowFor(now.In(c.loc))
}

// WindowFor returns [00:00, 24:00) of the calendar date that at falls on in
// the business timezone.
func (c *Clock) WindowFor(at time.Time) (time.Time, time.Time) {
	at = at.In(c.loc)
	start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}
