package core

import "time"

type (
	// Clock abstracts the wall clock so that time-window and elapsed-time
	// logic can be exercised deterministically in tests.
	Clock interface {
		Now() time.Time
	}

	realClock struct{}

	// FixedClock always reports the same instant. For tests.
	FixedClock struct {
		Time time.Time
	}
)

// NewClock returns the real wall clock. All times are UTC.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

func (c FixedClock) Now() time.Time { return c.Time }
