package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Validate checks the schedule's struct-tagged fields (interval
// non-negativity among them). An empty weekday mask is not rejected here:
// WeekdaySet.Normalize treats it as "every day", so it is never degenerate
// by the time NextFire reads it.
func Validate(s *Schedule) error {
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return nil
}

// ValidateAt ensures an optional run-at time of day is within range. The
// wire decoder calls this before constructing the TimeOfDay pointer.
func ValidateAt(hour, minute, second int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return fmt.Errorf("%w: at time of day out of range", ErrInvalidSchedule)
	}
	return nil
}

// ValidateWindow ensures endOn, if set, is not before startOn.
func ValidateWindow(startOn time.Time, endOn *time.Time) error {
	if endOn != nil && endOn.Before(startOn) {
		return fmt.Errorf("%w: end_on before start_on", ErrInvalidSchedule)
	}
	return nil
}
