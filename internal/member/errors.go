package member

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("member not found")
	// ErrStaticAccess is matched by every StaticAccessError.
	ErrStaticAccess = errors.New("instance member in static context")
)

// NotFoundError reports that no member matched a reference.
type NotFoundError struct {
	Kind      Kind
	Class     string
	Signature string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s in class %s", e.Kind, e.Signature, e.Class)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StaticAccessError reports a static-only lookup that matched only an
// instance member.
type StaticAccessError struct {
	Member *Member
}

func (e *StaticAccessError) Error() string {
	return fmt.Sprintf("cannot reach instance %s %s from static context", e.Member.Kind, e.Member)
}

func (e *StaticAccessError) Is(target error) bool { return target == ErrStaticAccess }
