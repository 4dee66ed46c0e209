// Package interfaces defines the contracts between the loading and member
// resolution components.
package interfaces

import (
	"github.com/origadmin/classpath/internal/classpath"
	"github.com/origadmin/classpath/internal/loader"
)

// TypeResolver defines the contract for resolving types by name.
type TypeResolver interface {
	// ResolveType resolves a type by its fully qualified, dotted name.
	ResolveType(name string) (*loader.Type, error)
}

// ChangeSource is implemented by resolvers whose results can go stale.
// Listeners registered on the returned registry are told when they do.
type ChangeSource interface {
	Listeners() *classpath.Registry
}
