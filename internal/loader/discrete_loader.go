package loader

import (
	"sort"
	"sync"

	"github.com/origadmin/classpath/internal/classpath"
)

// DiscreteLoader defines exactly the names it was built for and delegates
// everything else to its parent. A reload installs one DiscreteLoader for a
// whole batch so types of the batch see each other.
type DiscreteLoader struct {
	id      string
	sources map[string]classpath.Source
	parent  Loader

	mu      sync.Mutex
	defined map[string]*Type
}

// NewDiscreteLoader scopes a loader to sources.
func NewDiscreteLoader(id string, sources map[string]classpath.Source, parent Loader) *DiscreteLoader {
	owned := make(map[string]classpath.Source, len(sources))
	for name, src := range sources {
		owned[name] = src
	}
	return &DiscreteLoader{id: id, sources: owned, parent: parent, defined: make(map[string]*Type)}
}

func (l *DiscreteLoader) ID() string { return l.id }

// Owns reports whether name is defined by this loader rather than its parent.
func (l *DiscreteLoader) Owns(name string) bool {
	_, ok := l.sources[name]
	return ok
}

// Names returns the owned names, sorted.
func (l *DiscreteLoader) Names() []string {
	names := make([]string, 0, len(l.sources))
	for name := range l.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *DiscreteLoader) LoadType(name string) (*Type, error) {
	src, ok := l.sources[name]
	if !ok {
		if l.parent == nil {
			return nil, notFound(l, name)
		}
		return l.parent.LoadType(name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.defined[name]; ok {
		return t, nil
	}
	t, err := defineFrom(l, name, src)
	if err != nil {
		return nil, err
	}
	l.defined[name] = t
	return t, nil
}
