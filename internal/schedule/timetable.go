// Package schedule computes the recurring auction timetable and runs
// the periodic jobs that keep the marketplace moving.
package schedule

import (
	"fmt"
	"time"
)

// Slot is one daily opening time in the weekly timetable.
type Slot struct {
	Hour   int
	Minute int
}

// The weekly table: two windows on trading days (Monday through
// Saturday), a single evening window on Sunday.
var (
	morningSlot = Slot{Hour: 9, Minute: 0}
	eveningSlot = Slot{Hour: 18, Minute: 30}
)

// Timetable evaluates the fixed weekly auction schedule in one
// timezone. It is purely computational; nothing here touches the store.
type Timetable struct {
	loc *time.Location
}

// NewTimetable loads the given IANA timezone and returns a timetable
// evaluated in it.
func NewTimetable(timezone string) (*Timetable, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction timezone: %w", err)
	}
	return &Timetable{loc: loc}, nil
}

// Location returns the timetable's timezone.
func (t *Timetable) Location() *time.Location {
	return t.loc
}

// slotsFor returns the opening times for one weekday.
func slotsFor(day time.Weekday) []Slot {
	if day == time.Sunday {
		return []Slot{eveningSlot}
	}
	return []Slot{morningSlot, eveningSlot}
}

// NextSessionTime returns the first scheduled opening strictly after
// now. It is a pure function of now and the weekly table, so it stays
// correct across missed timer firings, week rollover and queries made
// before, between or after the day's windows.
func (t *Timetable) NextSessionTime(now time.Time) time.Time {
	local := now.In(t.loc)

	for day := 0; day <= 7; day++ {
		date := local.AddDate(0, 0, day)
		for _, slot := range slotsFor(date.Weekday()) {
			opening := time.Date(date.Year(), date.Month(), date.Day(),
				slot.Hour, slot.Minute, 0, 0, t.loc)
			if opening.After(now) {
				return opening
			}
		}
	}
	// Unreachable: within 7 days there is always a slot.
	return time.Time{}
}
