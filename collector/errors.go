package collector

import "fmt"

// ErrorKind classifies configuration errors that stop a query.
type ErrorKind string

const (
	ErrInvalidParams       ErrorKind = "invalid_params"
	ErrUnknownResourceType ErrorKind = "unknown_resource_type"
)

// Error is returned when a query cannot run. Repository failures are not
// wrapped in Error; they are returned as-is with context.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &collector.Error{Kind: collector.ErrInvalidParams}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func invalidParams(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidParams, Message: fmt.Sprintf(format, args...)}
}
