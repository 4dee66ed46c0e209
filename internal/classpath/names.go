package classpath

import (
	"sort"
	"strings"

	"github.com/origadmin/classpath/internal/classfile"
)

// NameIndex maps simple names to the qualified names that share them.
// It is a snapshot; an Index discards it whenever its contents change.
type NameIndex struct {
	bySimple map[string][]string
}

func buildNameIndex(all []string) *NameIndex {
	ix := &NameIndex{bySimple: make(map[string][]string, len(all))}
	for _, name := range all {
		_, simple := classfile.SplitName(name)
		names := ix.bySimple[simple]
		if containsString(names, name) {
			continue
		}
		ix.bySimple[simple] = append(names, name)
	}
	return ix
}

// Lookup returns the qualified names registered under simple.
func (ix *NameIndex) Lookup(simple string) ([]string, bool) {
	names, ok := ix.bySimple[simple]
	return names, ok
}

// Len returns the number of distinct simple names.
func (ix *NameIndex) Len() int { return len(ix.bySimple) }

// Complete returns the names that start with prefix. A dotted prefix is
// matched against qualified names, anything else against simple names.
func (ix *NameIndex) Complete(prefix string) []string {
	var out []string
	qualified := strings.Contains(prefix, ".")
	for simple, names := range ix.bySimple {
		if !qualified {
			if strings.HasPrefix(simple, prefix) {
				out = append(out, simple)
			}
			continue
		}
		for _, name := range names {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
