package member

import (
	"log/slog"
	"strings"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/loader"
)

type candidate struct {
	owner  *loader.Type
	method *classfile.Method
}

func (c candidate) member(kind Kind, round Round, accessible bool) *Member {
	return &Member{
		Kind:       kind,
		Declaring:  c.owner,
		Name:       c.method.Name,
		Params:     c.method.Params,
		Type:       c.method.Return,
		Flags:      c.method.Flags,
		Accessible: accessible,
		Round:      round,
	}
}

func arityMatches(m *classfile.Method, n int) bool {
	if len(m.Params) == n {
		return true
	}
	return m.Flags.IsVarArgs() && n >= len(m.Params)-1
}

// walk visits class, then its interfaces, then its superclass, each type
// once, until visit returns false.
func (r *Resolver) walk(class *loader.Type, visit func(*loader.Type) bool) {
	seen := map[string]bool{}
	var rec func(t *loader.Type) bool
	rec = func(t *loader.Type) bool {
		if seen[t.Name()] {
			return true
		}
		seen[t.Name()] = true
		if !visit(t) {
			return false
		}
		for _, name := range t.Interfaces() {
			if next := r.lookup(name); next != nil && !rec(next) {
				return false
			}
		}
		if s := t.Super(); s != "" {
			if next := r.lookup(s); next != nil {
				return rec(next)
			}
		}
		return true
	}
	rec(class)
}

func (r *Resolver) lookup(name string) *loader.Type {
	t, err := r.types.ResolveType(name)
	if err != nil {
		slog.Debug("Skipping unresolvable supertype", "type", name, "error", err)
		return nil
	}
	return t
}

// gatherMethods collects methods called name that accept n arguments. Within
// each pool a signature already seen in a more derived type hides later
// ones, so an inaccessible override leaves the public declaration reachable.
func (r *Resolver) gatherMethods(class *loader.Type, name string, n int) (pub, hidden []candidate) {
	pubSigs, hiddenSigs := map[string]bool{}, map[string]bool{}
	r.walk(class, func(t *loader.Type) bool {
		for _, m := range t.Methods() {
			if m.Name != name || m.IsConstructor() || !arityMatches(m, n) {
				continue
			}
			sig := paramKey(m.Params)
			c := candidate{owner: t, method: m}
			switch {
			case t.IsInterface() || (t.IsPublic() && m.Flags.IsPublic()):
				if !pubSigs[sig] {
					pubSigs[sig] = true
					pub = append(pub, c)
				}
			case !hiddenSigs[sig]:
				hiddenSigs[sig] = true
				hidden = append(hidden, c)
			}
		}
		return true
	})
	return pub, hidden
}

func paramKey(params []classfile.Desc) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(p.Descriptor())
	}
	return b.String()
}
