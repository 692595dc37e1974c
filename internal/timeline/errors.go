package timeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval indicates an interval size that does not evenly divide a day.
var ErrInvalidInterval = errors.New("timeline: interval minutes must evenly divide 1440")

// ErrInvalidRange indicates an end date earlier than the start date.
var ErrInvalidRange = errors.New("timeline: end date before start date")

// SerializationError indicates a day whose slot population does not match the
// configured interval size. It means the per-day invariant was violated
// upstream and must surface to the caller rather than produce malformed output.
type SerializationError struct {
	Day      string
	Expected int
	Actual   int
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("timeline: day %s has %d slots, expected %d", e.Day, e.Actual, e.Expected)
}
