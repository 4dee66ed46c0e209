package loader

import (
	"sync"

	"github.com/origadmin/classpath/internal/classpath"
)

// PathLoader defines the types an index maps. Each name is defined at most
// once, so repeated loads return the identical *Type.
type PathLoader struct {
	id    string
	index *classpath.Index

	mu      sync.Mutex
	defined map[string]*Type
}

// NewPathLoader returns a loader over ix.
func NewPathLoader(id string, ix *classpath.Index) *PathLoader {
	return &PathLoader{id: id, index: ix, defined: make(map[string]*Type)}
}

func (l *PathLoader) ID() string { return l.id }

// Index returns the index the loader reads from.
func (l *PathLoader) Index() *classpath.Index { return l.index }

func (l *PathLoader) LoadType(name string) (*Type, error) {
	l.mu.Lock()
	t, ok := l.defined[name]
	l.mu.Unlock()
	if ok {
		return t, nil
	}

	src := l.index.SourceOf(name)
	if src == nil {
		return nil, notFound(l, name)
	}
	t, err := defineFrom(l, name, src)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.defined[name]; ok {
		return prev, nil
	}
	l.defined[name] = t
	return t, nil
}

// Defined returns the number of types this loader has defined.
func (l *PathLoader) Defined() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.defined)
}
