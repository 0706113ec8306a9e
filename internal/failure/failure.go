// Package failure classifies the ways an auto-label run can stop.
package failure

import (
	"errors"
	"fmt"
)

// Kind tags a failure so the orchestrator can map it to a user-facing outcome.
type Kind int

const (
	// HostOperationFailed covers unexpected errors raised while reading or mutating the host page.
	HostOperationFailed Kind = iota
	// NoSenderDetected means every extraction heuristic was exhausted.
	NoSenderDetected
	// EmptyLabel means the user cancelled or left the label prompt blank.
	EmptyLabel
	// ElementNotFound means a required affordance or input was not rendered.
	ElementNotFound
	// FormNotReady means a required render did not complete before its timeout.
	FormNotReady
	// NavigationTimeout is logged when the settings view never signalled readiness.
	NavigationTimeout
)

func (k Kind) String() string {
	switch k {
	case NoSenderDetected:
		return "no sender detected"
	case EmptyLabel:
		return "empty label"
	case ElementNotFound:
		return "element not found"
	case FormNotReady:
		return "form not ready"
	case NavigationTimeout:
		return "navigation timeout"
	default:
		return "host operation failed"
	}
}

// Error is a tagged failure raised by a workflow step.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

var (
	ErrHostOperationFailed = &Error{Kind: HostOperationFailed}
	ErrNoSenderDetected    = &Error{Kind: NoSenderDetected}
	ErrEmptyLabel          = &Error{Kind: EmptyLabel}
	ErrElementNotFound     = &Error{Kind: ElementNotFound}
	ErrFormNotReady        = &Error{Kind: FormNotReady}
	ErrNavigationTimeout   = &Error{Kind: NavigationTimeout}
)

// New builds a tagged failure with a formatted cause.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies err. Untagged errors count as host failures.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return HostOperationFailed
}
