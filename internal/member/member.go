// Package member resolves method, constructor and field references against
// loaded types the way the host runtime's overload rules do.
//
// Candidates are gathered from the declaring class, its interface graph and
// its superclass chain, and split into a publicly reachable pool and the
// rest. The search then runs in rounds of increasing looseness (exact,
// loose, varargs) and stops at the first round that yields a match. Within a
// round the most specific applicable candidate wins; among equally specific
// candidates the first discovered is kept.
package member

import (
	"fmt"
	"strings"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/loader"
)

// Kind distinguishes the members a Resolver returns.
type Kind int

const (
	KindMethod Kind = iota
	KindConstructor
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	default:
		return "member"
	}
}

// Member is a resolved method, constructor or field.
type Member struct {
	Kind      Kind
	Declaring *loader.Type
	Name      string
	// Params is empty for fields.
	Params []classfile.Desc
	// Type is the return type of a method and the type of a field.
	Type  classfile.Desc
	Flags classfile.AccessFlags
	// Accessible is set when a non-public member was returned because
	// accessibility checks are relaxed.
	Accessible bool
	// Round is the round that produced a method or constructor match.
	Round Round
}

func (m *Member) IsStatic() bool  { return m.Flags.IsStatic() }
func (m *Member) IsVarArgs() bool { return m.Flags.IsVarArgs() }

func (m *Member) String() string {
	var b strings.Builder
	if mods := m.Flags.String(); mods != "" {
		b.WriteString(mods)
		b.WriteByte(' ')
	}
	switch m.Kind {
	case KindField:
		fmt.Fprintf(&b, "%s %s.%s", m.Type, m.Declaring.Name(), m.Name)
	case KindConstructor:
		b.WriteString(Signature(m.Declaring.Name(), m.Params))
	default:
		fmt.Fprintf(&b, "%s %s.%s", m.Type, m.Declaring.Name(), Signature(m.Name, m.Params))
	}
	return b.String()
}

// Signature renders a call such as "f(java.lang.String, int)" for
// diagnostics.
func Signature(name string, args []classfile.Desc) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func argKey(args []classfile.Desc) string {
	var b strings.Builder
	for _, a := range args {
		if a.IsNull() {
			b.WriteString("N;")
			continue
		}
		b.WriteString(a.Descriptor())
	}
	return b.String()
}
