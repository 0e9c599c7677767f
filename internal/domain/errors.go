package domain

import "errors"

var (
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrNoAllowedWeekday = errors.New("no allowed weekday found within the interval")
	ErrCallbackNotFound = errors.New("callback not found")
)
