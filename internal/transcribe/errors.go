package transcribe

import "errors"

var (
	// ErrPinnedOffGrid indicates a constraint pinned to a time value that
	// is not a grid support.
	ErrPinnedOffGrid = errors.New("transcribe: pinned time not on support grid")

	// ErrUnquantifiedAccess indicates a constraint expression reading a
	// variable indexed by a domain the constraint is not quantified over.
	ErrUnquantifiedAccess = errors.New("transcribe: expression accesses variable outside quantified domains")

	// ErrUnknownDomain indicates a constraint quantified over a domain
	// the problem does not register.
	ErrUnknownDomain = errors.New("transcribe: unknown domain in constraint quantifier")

	// ErrDuplicateVariable indicates two variable definitions sharing an ID.
	ErrDuplicateVariable = errors.New("transcribe: duplicate variable id")
)
