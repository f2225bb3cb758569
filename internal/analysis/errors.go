package analysis

import "errors"

var (
	// ErrNoUserRecords is returned when the raw event list is empty.
	ErrNoUserRecords = errors.New("no records found for user")
	// ErrEmptyAfterFilter is returned when no event survives cleaning and the history cutoff.
	ErrEmptyAfterFilter = errors.New("no events left after filtering (history window too small or timestamps unparsable)")
	// ErrCancelled is returned when the caller's context ends mid-analysis.
	ErrCancelled = errors.New("analysis cancelled")
	// ErrInvalidConfig is returned for settings the pipeline cannot run with.
	ErrInvalidConfig = errors.New("invalid analysis config")
)
