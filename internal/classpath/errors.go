package classpath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a name is unknown to an index.
	ErrNotFound = errors.New("classpath: not found")
	// ErrAmbiguous is matched by *AmbiguousNameError.
	ErrAmbiguous = errors.New("classpath: ambiguous name")
	// ErrCycle is returned when composing an index would create a cycle.
	ErrCycle = errors.New("classpath: component cycle")
	// ErrReloadRefused is returned for types whose bytes cannot be superseded.
	ErrReloadRefused = errors.New("classpath: reload refused")
	// ErrNothingKnown is returned when a reload names no known type.
	ErrNothingKnown = errors.New("classpath: nothing known")
	// ErrFeedbackRegistered is returned when a second feedback sink is set.
	ErrFeedbackRegistered = errors.New("classpath: feedback sink already registered")
)

// AmbiguousNameError reports every qualified name sharing a simple name.
type AmbiguousNameError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("ambiguous class name %q: %s", e.Name, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousNameError) Is(target error) bool { return target == ErrAmbiguous }

// Error is a reportable classpath exception raised by reload requests.
type Error struct {
	Op     string
	Name   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Name, e.Reason)
	case errors.Is(e.Err, ErrReloadRefused):
		return fmt.Sprintf("%s %s: cannot reload class from an archive", e.Op, e.Name)
	case errors.Is(e.Err, ErrNothingKnown):
		return fmt.Sprintf("%s %s: nothing known about this class or package", e.Op, e.Name)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
