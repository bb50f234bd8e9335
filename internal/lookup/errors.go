package lookup

import (
	"errors"
	"fmt"
)

// Kind classifies lookup failures.
type Kind int

const (
	// InternalFault is any unexpected failure while querying the databases.
	InternalFault Kind = iota
	// MissingInput means there was neither a query nor a client address.
	MissingInput
	// InvalidTarget means the query is neither an IP nor a resolvable name.
	InvalidTarget
	// ResolutionFailure means DNS failed for a reason other than "not found".
	ResolutionFailure
)

func (k Kind) String() string {
	switch k {
	case MissingInput:
		return "missing_input"
	case InvalidTarget:
		return "invalid_target"
	case ResolutionFailure:
		return "resolution_failure"
	default:
		return "internal_fault"
	}
}

// Error is a lookup failure. Its message is safe to return to the caller;
// the underlying cause is available through Unwrap.
type Error struct {
	Kind  Kind
	Query string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingInput:
		return "No IP address or domain provided."
	case InvalidTarget:
		return fmt.Sprintf("Invalid domain or IP address: '%s'", e.Query)
	case ResolutionFailure:
		return fmt.Sprintf("Failed to resolve domain '%s': %v", e.Query, e.Err)
	default:
		return "An error occurred during lookup."
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, InternalFault for errors that are not
// lookup errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return InternalFault
}
