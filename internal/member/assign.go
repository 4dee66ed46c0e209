package member

import (
	"log/slog"

	"github.com/origadmin/classpath/internal/classfile"
)

// Round is one pass of the overload search.
type Round int

const (
	// RoundExact allows identity, null and reference widening only.
	RoundExact Round = iota
	// RoundLoose adds primitive widening, boxing and unboxing.
	RoundLoose
	// RoundVarArgs expands trailing arguments into a varargs array.
	RoundVarArgs
)

var rounds = []Round{RoundExact, RoundLoose, RoundVarArgs}

func (r Round) String() string {
	switch r {
	case RoundExact:
		return "exact"
	case RoundLoose:
		return "loose"
	case RoundVarArgs:
		return "varargs"
	default:
		return "unknown"
	}
}

var boxes = map[string]string{
	classfile.Boolean: "java.lang.Boolean",
	classfile.Byte:    "java.lang.Byte",
	classfile.Char:    "java.lang.Character",
	classfile.Short:   "java.lang.Short",
	classfile.Int:     "java.lang.Integer",
	classfile.Long:    "java.lang.Long",
	classfile.Float:   "java.lang.Float",
	classfile.Double:  "java.lang.Double",
}

var unboxes = func() map[string]string {
	m := make(map[string]string, len(boxes))
	for p, b := range boxes {
		m[b] = p
	}
	return m
}()

var widenings = map[string][]string{
	classfile.Byte:  {classfile.Short, classfile.Int, classfile.Long, classfile.Float, classfile.Double},
	classfile.Short: {classfile.Int, classfile.Long, classfile.Float, classfile.Double},
	classfile.Char:  {classfile.Int, classfile.Long, classfile.Float, classfile.Double},
	classfile.Int:   {classfile.Long, classfile.Float, classfile.Double},
	classfile.Long:  {classfile.Float, classfile.Double},
	classfile.Float: {classfile.Double},
}

// Arrays implement these besides extending Object.
var arraySupers = map[string]bool{
	"java.lang.Object":     true,
	"java.lang.Cloneable":  true,
	"java.io.Serializable": true,
}

func widens(from, to string) bool {
	for _, w := range widenings[from] {
		if w == to {
			return true
		}
	}
	return false
}

// assignable reports whether a value of type from may be passed where to is
// expected under round r.
func (r *Resolver) assignable(from, to classfile.Desc, round Round) bool {
	if from == to {
		return true
	}
	if from.IsNull() {
		return to.IsReference()
	}
	if from.IsReference() && to.IsReference() {
		return r.isSubtype(from, to)
	}
	if round == RoundExact {
		return false
	}

	switch {
	case from.IsPrimitive() && to.IsPrimitive():
		return widens(from.Name, to.Name)
	case from.IsPrimitive():
		box, ok := boxes[from.Name]
		return ok && r.isSubtype(classfile.Desc{Name: box}, to)
	default:
		if from.IsArray() {
			return false
		}
		p, ok := unboxes[from.Name]
		return ok && (p == to.Name || widens(p, to.Name))
	}
}

// isSubtype reports whether reference type from extends or implements to.
// Types that cannot be resolved are treated as having no supertypes.
func (r *Resolver) isSubtype(from, to classfile.Desc) bool {
	if from == to || (to.Dims == 0 && to.Name == classfile.Object.Name) {
		return true
	}
	switch {
	case from.Dims > 0 && to.Dims == 0:
		return arraySupers[to.Name]
	case from.Dims > 0:
		fe, te := from.Elem(), to.Elem()
		if fe.IsPrimitive() || te.IsPrimitive() {
			return fe == te
		}
		return r.isSubtype(fe, te)
	case to.Dims > 0:
		return false
	}

	visited := map[string]bool{from.Name: true}
	queue := []string{from.Name}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		t, err := r.types.ResolveType(name)
		if err != nil {
			slog.Debug("Supertype walk stopped", "type", name, "error", err)
			continue
		}
		supers := t.Interfaces()
		if s := t.Super(); s != "" {
			supers = append([]string{s}, supers...)
		}
		for _, s := range supers {
			if s == to.Name {
				return true
			}
			if !visited[s] {
				visited[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

// applicable reports whether args can be passed to params in round.
func (r *Resolver) applicable(params, args []classfile.Desc, round Round) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !r.assignable(args[i], params[i], round) {
			return false
		}
	}
	return true
}

// moreSpecific reports whether a is strictly more specific than b: every
// parameter of a is assignable to the matching parameter of b and not the
// other way round.
func (r *Resolver) moreSpecific(a, b []classfile.Desc) bool {
	return r.applicable(b, a, RoundLoose) && !r.applicable(a, b, RoundLoose)
}

// expand returns the parameter list a varargs method takes for n arguments.
func expand(params []classfile.Desc, n int) []classfile.Desc {
	fixed := len(params) - 1
	if fixed < 0 || n < fixed {
		return nil
	}
	out := make([]classfile.Desc, 0, n)
	out = append(out, params[:fixed]...)
	elem := params[fixed].Elem()
	for len(out) < n {
		out = append(out, elem)
	}
	return out
}
