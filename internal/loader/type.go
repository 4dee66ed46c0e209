// Package loader resolves type names to loaded types through an auditable
// precedence chain of loaders, and reloads groups of types on request by
// installing isolated loaders in front of that chain.
package loader

import (
	"errors"
	"fmt"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/classpath"
)

var (
	// ErrTypeNotFound is returned when no loader in the chain defines a name.
	ErrTypeNotFound = errors.New("type not found")
	// ErrAccessDenied is returned by an ambient loader provider that may not
	// be consulted.
	ErrAccessDenied = errors.New("access denied")
)

// Type is a class or interface defined by exactly one Loader. Two Types with
// the same name but different loaders are different types.
type Type struct {
	class  *classfile.Class
	loader Loader
	source classpath.Source
}

func (t *Type) Name() string                 { return t.class.Name }
func (t *Type) Super() string                { return t.class.Super }
func (t *Type) Interfaces() []string         { return t.class.Interfaces }
func (t *Type) Flags() classfile.AccessFlags { return t.class.Flags }
func (t *Type) IsPublic() bool               { return t.class.Flags.IsPublic() }
func (t *Type) IsInterface() bool            { return t.class.Flags.IsInterface() }
func (t *Type) Methods() []*classfile.Method { return t.class.Methods }
func (t *Type) Fields() []*classfile.Field   { return t.class.Fields }
func (t *Type) Class() *classfile.Class      { return t.class }
func (t *Type) Loader() Loader               { return t.loader }
func (t *Type) Source() classpath.Source     { return t.source }
func (t *Type) Desc() classfile.Desc         { return classfile.Desc{Name: t.class.Name} }

func (t *Type) String() string {
	return fmt.Sprintf("%s (%s)", t.class.Name, t.loader.ID())
}

// Loader defines types by name.
type Loader interface {
	ID() string
	LoadType(name string) (*Type, error)
}

// defineFrom reads and parses the bytes of name from src on behalf of l.
func defineFrom(l Loader, name string, src classpath.Source) (*Type, error) {
	b, err := classpath.ReadSource(src, name)
	if err != nil {
		return nil, err
	}
	c, err := classfile.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", name, err)
	}
	if c.Name != name {
		return nil, fmt.Errorf("define %s: class file declares %s", name, c.Name)
	}
	return &Type{class: c, loader: l, source: src}, nil
}

func notFound(l Loader, name string) error {
	return fmt.Errorf("%s: %w: %s", l.ID(), ErrTypeNotFound, name)
}
