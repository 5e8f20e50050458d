package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of effective dates.
const DateLayout = "2006-01-02"

// WorkingHours is a technician's availability for one weekday, effective
// from EffectiveDate until a later record for the same day supersedes it.
type WorkingHours struct {
	ID            uuid.UUID
	TechnicianID  uuid.UUID
	DayOfWeek     int // 0 = Sunday
	StartTime     string
	EndTime       string
	IsAvailable   bool
	EffectiveDate time.Time // date only, UTC midnight
	CreatedAt     time.Time
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil || len(value) != 5 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Validate checks day range, clock format and start < end.
func (w WorkingHours) Validate() error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return ErrValidation("dayOfWeek must be between 0 and 6").WithCode(CodeInvalidWorkingHours)
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return ErrValidation(err.Error()).WithCode(CodeInvalidWorkingHours)
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return ErrValidation(err.Error()).WithCode(CodeInvalidWorkingHours)
	}
	if start >= end {
		return ErrValidation("startTime must be before endTime").WithCode(CodeInvalidWorkingHours)
	}
	return nil
}

// Covers reports whether the record is available and the half-open
// interval [start, end) contains minuteOfDay.
func (w WorkingHours) Covers(minuteOfDay int) bool {
	if !w.IsAvailable {
		return false
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return false
	}
	return minuteOfDay >= start && minuteOfDay < end
}

// LocalSlot is a scheduled instant expressed in the service time zone.
type LocalSlot struct {
	DayOfWeek   int
	Date        time.Time // UTC midnight of the local calendar date
	MinuteOfDay int
}

// SlotIn converts instant to its weekday, calendar date and minute of day in loc.
func SlotIn(instant time.Time, loc *time.Location) LocalSlot {
	if loc == nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	y, m, d := local.Date()
	return LocalSlot{
		DayOfWeek:   int(local.Weekday()),
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		MinuteOfDay: local.Hour()*60 + local.Minute(),
	}
}
