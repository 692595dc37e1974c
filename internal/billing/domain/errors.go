package billing

import "errors"

var (
	// ErrNonContiguousBillingRange indicates a billing history with gaps
	// between consecutive periods when contiguity was required.
	ErrNonContiguousBillingRange = errors.New("billing: date ranges are not contiguous")

	// ErrOverlappedBillingRange indicates two billing periods claiming the
	// same days. Overlap is never tolerable downstream.
	ErrOverlappedBillingRange = errors.New("billing: date ranges overlap")

	// ErrInvalidPeriod indicates an end date earlier than the start date.
	ErrInvalidPeriod = errors.New("billing: period end before start")
)
