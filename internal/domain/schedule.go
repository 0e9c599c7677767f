package domain

import (
	"sync"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/clock"
)

// Schedule describes when a callback should fire. Interval, Weekdays, At,
// StartOn and Repeat are set once at construction and never change.
// LastRun, EndOn and NextRunOverride are mutated by the owning ScheduleTask
// as it fires (and, for EndOn only, by a concurrent Stop/Remove), so they
// are guarded by mu rather than accessed as bare fields.
type Schedule struct {
	Weeks        float64 `validate:"gte=0"`
	Days         float64 `validate:"gte=0"`
	Hours        float64 `validate:"gte=0"`
	Minutes      float64 `validate:"gte=0"`
	Seconds      float64 `validate:"gte=0"`
	Milliseconds float64 `validate:"gte=0"`
	Microseconds float64 `validate:"gte=0"`

	Weekdays clock.WeekdaySet
	At       *clock.TimeOfDay
	StartOn  time.Time
	Repeat   bool

	mu              sync.RWMutex
	endOn           *time.Time
	lastRun         *time.Time
	nextRunOverride *time.Time
}

// New builds a Schedule with the weekday-mask normalization and StartOn
// default ("every day allowed" / "now") that the wire decoder relies on.
func New(startOn time.Time, weekdays clock.WeekdaySet, at *clock.TimeOfDay, repeat bool) *Schedule {
	if startOn.IsZero() {
		startOn = time.Now()
	}
	return &Schedule{
		Weekdays: weekdays.Normalize(),
		At:       at,
		StartOn:  startOn,
		Repeat:   repeat,
	}
}

// NewRepeating is the Go constructor standing in for the original's
// RepeatSchedule subclass: a Schedule that defaults to repeat=true.
func NewRepeating(startOn time.Time, weekdays clock.WeekdaySet, at *clock.TimeOfDay) *Schedule {
	return New(startOn, weekdays, at, true)
}

// Interval sums the interval fields into a single duration.
func (s *Schedule) Interval() time.Duration {
	return clock.Interval{
		Weeks:        s.Weeks,
		Days:         s.Days,
		Hours:        s.Hours,
		Minutes:      s.Minutes,
		Seconds:      s.Seconds,
		Milliseconds: s.Milliseconds,
		Microseconds: s.Microseconds,
	}.Duration()
}

// EndOn returns the terminal instant, or nil if the schedule has none.
func (s *Schedule) EndOn() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endOn
}

// SetEndOn sets the terminal instant. A nil t clears it.
func (s *Schedule) SetEndOn(t *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOn = t
}

// LastRun returns the last firing time, or nil if it has never fired.
func (s *Schedule) LastRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// SetLastRun sets the last firing time.
func (s *Schedule) SetLastRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &t
}

// NextRunOverride returns the manually forced next-fire time, if any.
func (s *Schedule) NextRunOverride() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRunOverride
}

// SetNextRunOverride forces the next call to NextFire to return t exactly
// once; Reschedule clears it after the firing it produced.
func (s *Schedule) SetNextRunOverride(t *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunOverride = t
}

// PastEnd reports whether now is at or past EndOn (inclusive).
func (s *Schedule) PastEnd(now time.Time) bool {
	end := s.EndOn()
	return end != nil && !now.Before(*end)
}

// allowedWeekday reports whether dt falls on a weekday this schedule may
// fire on.
func (s *Schedule) allowedWeekday(dt time.Time) bool {
	return s.Weekdays.Normalize().Has(dt.Weekday())
}

// makeAt overwrites dt's time-of-day with the At anchor, keeping dt's
// calendar date. This intentionally applies on every weekday-rollover
// candidate too, so a sub-day interval combined with At produces firings
// "at the same time of day" on successive days rather than at the natural
// basis+interval instant — see the open-question note in SPEC_FULL.md §4.1.
func (s *Schedule) makeAt(dt time.Time) time.Time {
	if s.At == nil {
		return dt
	}
	return s.At.OnDate(dt)
}

// createRunTime computes the next candidate firing time without consulting
// EndOn or NextRunOverride. It returns ErrNoAllowedWeekday if no allowed
// weekday is found within seven days of the basis, in which case the
// caller is responsible for setting EndOn to the basis per spec.
func (s *Schedule) createRunTime() (time.Time, error) {
	basis := s.StartOn
	if lr := s.LastRun(); lr != nil {
		basis = *lr
	}

	dt := basis.Add(s.Interval())
	dt = s.makeAt(dt)

	for i := 0; !s.allowedWeekday(dt); i++ {
		if i >= 7 {
			return basis, ErrNoAllowedWeekday
		}
		dt = dt.AddDate(0, 0, 1)
		dt = s.makeAt(dt)
	}
	return dt, nil
}

// NextFire returns the next time this schedule should fire, or nil if it
// is terminal (past EndOn, or no allowed weekday exists for this interval).
func (s *Schedule) NextFire(now time.Time) *time.Time {
	if s.PastEnd(now) {
		return nil
	}
	if override := s.NextRunOverride(); override != nil {
		return override
	}

	next, err := s.createRunTime()
	if err != nil {
		basis := next
		s.SetEndOn(&basis)
		return nil
	}
	return &next
}

// noRunIn is the sentinel RunIn returns when there is no next firing. It is
// negative the way the original's run_in() returns -1.
const noRunIn time.Duration = -1

// RunIn returns how long to wait before the next firing: noRunIn if there
// is none, zero if it is already due, otherwise a positive duration.
func (s *Schedule) RunIn(now time.Time) time.Duration {
	next := s.NextFire(now)
	if next == nil {
		return noRunIn
	}
	if now.After(*next) {
		return 0
	}
	return next.Sub(now)
}

// CanRun reports whether this schedule is due to fire right now.
func (s *Schedule) CanRun(now time.Time) bool {
	return s.RunIn(now) == 0
}

// Reschedule records now as the last firing and, for a non-repeating
// schedule, marks it terminal as of now.
func (s *Schedule) Reschedule(now time.Time) {
	s.SetLastRun(now)
	s.SetNextRunOverride(nil)
	if !s.Repeat {
		end := now
		s.SetEndOn(&end)
	}
}

// Stop marks the schedule terminal as of now. Unlike the original's
// identity-walk over all live tasks, the caller (ScheduleTask) is expected
// to also cancel its tracked task handle directly.
func (s *Schedule) Stop(now time.Time) {
	end := now
	s.SetEndOn(&end)
}

// Snapshot is an independent copy of a Schedule's fields, safe to read
// without holding its mutex — used by ListSchedules and the wire codec.
type Snapshot struct {
	Weeks, Days, Hours, Minutes, Seconds, Milliseconds, Microseconds float64
	Weekdays                                                         clock.WeekdaySet
	At                                                                *clock.TimeOfDay
	StartOn                                                           time.Time
	EndOn                                                             *time.Time
	LastRun                                                           *time.Time
	NextRunOverride                                                   *time.Time
	Repeat                                                            bool
}

// Snapshot copies s's fields into a value safe to read concurrently.
func (s *Schedule) Snapshot() Snapshot {
	return Snapshot{
		Weeks: s.Weeks, Days: s.Days, Hours: s.Hours, Minutes: s.Minutes,
		Seconds: s.Seconds, Milliseconds: s.Milliseconds, Microseconds: s.Microseconds,
		Weekdays: s.Weekdays, At: s.At, StartOn: s.StartOn, Repeat: s.Repeat,
		EndOn: s.EndOn(), LastRun: s.LastRun(), NextRunOverride: s.NextRunOverride(),
	}
}
