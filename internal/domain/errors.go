package domain

import "errors"

// Configuration errors, reported before any later pipeline stage runs.
var (
	// ErrEmptySpan indicates a domain with zero or negative width.
	ErrEmptySpan = errors.New("domain: zero or negative span")

	// ErrBadPointCount indicates a grid with fewer than two supports.
	ErrBadPointCount = errors.New("domain: grid needs at least two points")

	// ErrBadNodeCount indicates a collocation element of less than one interval.
	ErrBadNodeCount = errors.New("domain: element node count must be positive")

	// ErrBadSampleCount indicates a non-positive number of draws.
	ErrBadSampleCount = errors.New("domain: sample count must be positive")

	// ErrExtraOutOfRange indicates an extra support outside the interval.
	ErrExtraOutOfRange = errors.New("domain: extra support outside interval")

	// ErrWrongKind indicates a discretization applied to the wrong domain kind.
	ErrWrongKind = errors.New("domain: discretization does not match domain kind")
)
