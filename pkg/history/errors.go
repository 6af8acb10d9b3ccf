package history

import "errors"

var (
	// ErrLogNil is returned when a tracker is created without a log.
	ErrLogNil = errors.New("history: log cannot be nil")

	// ErrInvalidGrouping is returned for an unknown aggregation grouping.
	ErrInvalidGrouping = errors.New("history: invalid grouping")

	// ErrInvalidPeriod is returned when an aggregation period is inverted.
	ErrInvalidPeriod = errors.New("history: period end must be after start")
)
