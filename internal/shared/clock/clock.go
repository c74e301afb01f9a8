package clock

import "time"

// Clock is the time source every component depends on, so tests can pin time.
type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time
	// Today returns the current calendar date (midnight UTC).
	Today() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Fixed is a clock frozen at a single instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant.UTC()
}

func (f Fixed) Today() time.Time {
	return f.Instant.UTC().Truncate(24 * time.Hour)
}
