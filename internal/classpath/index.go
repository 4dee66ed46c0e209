// Package classpath maps classpath components (directories, archives, the
// boot library and generated types) to the type names they provide, and
// composes those mappings into layered, lazily initialized indexes.
package classpath

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/origadmin/classpath/internal/classfile"
)

// DefaultPackage names the unnamed package in package-level operations.
const DefaultPackage = "<unpackaged>"

// Option configures an Index.
type Option func(*Index)

// WithFeedback routes mapping progress of this index to f instead of the
// process-wide sink.
func WithFeedback(f Feedback) Option {
	return func(ix *Index) { ix.feedback = f }
}

// WithName labels the index in logs and String output.
func WithName(name string) Option {
	return func(ix *Index) { ix.name = name }
}

// Index maps package names to type names and type names to their Source
// for an ordered list of entries plus an ordered list of child indexes.
// Children are consulted, never copied. Mapping happens once per reset, the
// first time a query needs it.
type Index struct {
	name     string
	feedback Feedback

	mu          sync.Mutex
	entries     []Entry
	children    []*Index
	initialized bool
	packages    map[string]map[string]struct{}
	sources     map[string]Source
	explicit    map[string]Source
	names       *NameIndex
	generation  uint64
	unwatch     []func()

	traversals atomic.Int64
	listeners  *Registry
}

// NewIndex returns an uninitialized index over entries.
func NewIndex(entries []Entry, opts ...Option) *Index {
	ix := &Index{
		entries:   append([]Entry(nil), entries...),
		explicit:  make(map[string]Source),
		listeners: NewRegistry(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Index) String() string {
	if ix.name != "" {
		return "classpath(" + ix.name + ")"
	}
	entries := ix.Entries()
	locs := make([]string, len(entries))
	for i, e := range entries {
		locs[i] = e.Location()
	}
	return "classpath[" + strings.Join(locs, ", ") + "]"
}

// Listeners returns the registry notified when this index changes.
func (ix *Index) Listeners() *Registry { return ix.listeners }

// Entries returns a copy of the index's own path entries.
func (ix *Index) Entries() []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return append([]Entry(nil), ix.entries...)
}

// Components returns a copy of the child indexes in registration order.
func (ix *Index) Components() []*Index {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return append([]*Index(nil), ix.children...)
}

// Traversals counts path entries mapped by this index since creation.
func (ix *Index) Traversals() int64 { return ix.traversals.Load() }

// Initialized reports whether the index's own entries are mapped.
func (ix *Index) Initialized() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.initialized
}

// InsureInitialized maps every uninitialized index in the composition,
// children before parents. Each index is locked only while it maps itself.
func (ix *Index) InsureInitialized() {
	for _, c := range ix.postOrder() {
		c.initSelf()
	}
}

func (ix *Index) initSelf() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.initialized {
		return
	}
	ix.packages = make(map[string]map[string]struct{})
	ix.sources = make(map[string]Source)

	fb := ix.feedbackSink()
	fb.StartMapping()
	for _, e := range ix.entries {
		ix.mapEntryLocked(e, fb)
	}
	fb.EndMapping()

	for name := range ix.explicit {
		ix.addPackageLocked(name)
	}
	ix.initialized = true
	ix.invalidateLocked()
}

// mapEntryLocked adds the names of e that are not already mapped. A failing
// entry contributes nothing and does not stop its siblings.
func (ix *Index) mapEntryLocked(e Entry, fb Feedback) {
	ix.traversals.Add(1)
	fb.Mapping(e.Location())

	var found []string
	err := e.Walk(func(name string) error {
		found = append(found, name)
		return nil
	})
	if err != nil {
		fb.ErrorWhileMapping(fmt.Sprintf("%s: %v", e.Location(), err))
		return
	}
	src := e.Source()
	for _, name := range found {
		if _, ok := ix.sources[name]; ok {
			continue
		}
		ix.sources[name] = src
		ix.addPackageLocked(name)
	}
}

func (ix *Index) addPackageLocked(name string) {
	if ix.packages == nil {
		return
	}
	pkg, _ := classfile.SplitName(name)
	set, ok := ix.packages[pkg]
	if !ok {
		set = make(map[string]struct{})
		ix.packages[pkg] = set
	}
	set[name] = struct{}{}
}

func (ix *Index) invalidateLocked() {
	ix.names = nil
	ix.generation++
}

func (ix *Index) feedbackSink() Feedback {
	if ix.feedback != nil {
		return ix.feedback
	}
	return currentFeedback()
}

// TypesInPackage returns the sorted union of the types of pkg in this index
// and all of its components. Use DefaultPackage for the unnamed package.
func (ix *Index) TypesInPackage(pkg string) []string {
	ix.InsureInitialized()
	if pkg == DefaultPackage {
		pkg = ""
	}
	set := make(map[string]struct{})
	for _, c := range ix.preOrder() {
		c.mu.Lock()
		for name := range c.packages[pkg] {
			set[name] = struct{}{}
		}
		c.mu.Unlock()
	}
	return sortedKeys(set)
}

// SourceOf returns the origin of name or nil. Explicitly registered sources
// are checked before any mapping is forced.
func (ix *Index) SourceOf(name string) Source {
	if src := ix.localSource(name); src != nil {
		return src
	}
	ix.InsureInitialized()
	for _, c := range ix.preOrder() {
		if src := c.localSource(name); src != nil {
			return src
		}
	}
	return nil
}

func (ix *Index) localSource(name string) Source {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if src, ok := ix.explicit[name]; ok {
		return src
	}
	if src, ok := ix.sources[name]; ok {
		return src
	}
	return nil
}

// SetClassSource registers src for name, overriding anything mapped from
// the path. Explicit sources survive Reset.
func (ix *Index) SetClassSource(name string, src Source) {
	ix.mu.Lock()
	ix.explicit[name] = src
	ix.addPackageLocked(name)
	ix.invalidateLocked()
	ix.mu.Unlock()
	ix.listeners.Notify()
}

// AllTypes returns every type name known to the composition, sorted.
func (ix *Index) AllTypes() []string {
	ix.InsureInitialized()
	set := make(map[string]struct{})
	for _, c := range ix.preOrder() {
		c.mu.Lock()
		for name := range c.sources {
			set[name] = struct{}{}
		}
		for name := range c.explicit {
			set[name] = struct{}{}
		}
		c.mu.Unlock()
	}
	return sortedKeys(set)
}

// Packages returns every package known to the composition, sorted. The
// unnamed package is reported as DefaultPackage.
func (ix *Index) Packages() []string {
	ix.InsureInitialized()
	set := make(map[string]struct{})
	for _, c := range ix.preOrder() {
		c.mu.Lock()
		for pkg := range c.packages {
			if pkg == "" {
				pkg = DefaultPackage
			}
			set[pkg] = struct{}{}
		}
		c.mu.Unlock()
	}
	return sortedKeys(set)
}

// NameIndex returns the simple-name index of the current generation,
// building it when absent.
func (ix *Index) NameIndex() *NameIndex {
	ix.InsureInitialized()
	ix.mu.Lock()
	if n := ix.names; n != nil {
		ix.mu.Unlock()
		return n
	}
	gen := ix.generation
	ix.mu.Unlock()

	n := buildNameIndex(ix.AllTypes())

	ix.mu.Lock()
	if ix.generation == gen && ix.names == nil {
		ix.names = n
	}
	ix.mu.Unlock()
	return n
}

// ResolveUnqualified maps a simple name to its single qualified name. When
// several qualified names share it, an *AmbiguousNameError lists them all.
func (ix *Index) ResolveUnqualified(simple string) (string, error) {
	names, ok := ix.NameIndex().Lookup(simple)
	switch {
	case !ok || len(names) == 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, simple)
	case len(names) > 1:
		candidates := append([]string(nil), names...)
		sort.Strings(candidates)
		return "", &AmbiguousNameError{Name: simple, Candidates: candidates}
	}
	return names[0], nil
}

// AddComponent composes child into ix. Changes of child are forwarded to the
// listeners of ix. Adding an ancestor of ix fails with ErrCycle.
func (ix *Index) AddComponent(child *Index) error {
	if child == nil {
		return fmt.Errorf("add component to %s: nil index", ix)
	}
	if child == ix || child.reaches(ix) {
		return fmt.Errorf("add %s to %s: %w", child, ix, ErrCycle)
	}
	cancel := Watch(child.listeners, ix)

	ix.mu.Lock()
	ix.children = append(ix.children, child)
	ix.unwatch = append(ix.unwatch, cancel)
	ix.invalidateLocked()
	ix.mu.Unlock()

	ix.listeners.Notify()
	return nil
}

// Add appends a path entry. An initialized index maps it immediately; names
// already mapped from earlier entries keep their source.
func (ix *Index) Add(e Entry) {
	ix.mu.Lock()
	ix.entries = append(ix.entries, e)
	if ix.initialized {
		fb := ix.feedbackSink()
		fb.StartMapping()
		ix.mapEntryLocked(e, fb)
		fb.EndMapping()
	}
	ix.invalidateLocked()
	ix.mu.Unlock()
	ix.listeners.Notify()
}

// SetEntries replaces the index's own entries and resets it.
func (ix *Index) SetEntries(entries []Entry) {
	ix.mu.Lock()
	ix.entries = append([]Entry(nil), entries...)
	ix.resetLocked()
	ix.mu.Unlock()
	ix.listeners.Notify()
}

// Reset discards mapped data so the next query remaps, and notifies listeners.
func (ix *Index) Reset() {
	ix.mu.Lock()
	ix.resetLocked()
	ix.mu.Unlock()
	ix.listeners.Notify()
}

func (ix *Index) resetLocked() {
	ix.packages = nil
	ix.sources = nil
	ix.initialized = false
	ix.invalidateLocked()
}

// ClassPathChanged is called when a component changes. The composed name
// index is stale; own mappings stay valid.
func (ix *Index) ClassPathChanged() {
	ix.mu.Lock()
	ix.invalidateLocked()
	ix.mu.Unlock()
	ix.listeners.Notify()
}

// Close drops the subscriptions this index holds on its components.
func (ix *Index) Close() {
	ix.mu.Lock()
	unwatch := ix.unwatch
	ix.unwatch = nil
	ix.mu.Unlock()
	for _, cancel := range unwatch {
		cancel()
	}
}

// reaches reports whether target is ix or one of its descendants.
func (ix *Index) reaches(target *Index) bool {
	visited := map[*Index]bool{}
	stack := []*Index{ix}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, cur.Components()...)
	}
	return false
}

// preOrder lists ix followed by its descendants depth-first, children in
// registration order, each index once.
func (ix *Index) preOrder() []*Index {
	var order []*Index
	visited := map[*Index]bool{}
	stack := []*Index{ix}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		order = append(order, cur)
		kids := cur.Components()
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return order
}

// postOrder lists the descendants of ix before ix itself.
func (ix *Index) postOrder() []*Index {
	type frame struct {
		ix   *Index
		kids []*Index
		next int
	}
	var order []*Index
	visited := map[*Index]bool{ix: true}
	stack := []frame{{ix: ix, kids: ix.Components()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.kids) {
			kid := top.kids[top.next]
			top.next++
			if !visited[kid] {
				visited[kid] = true
				stack = append(stack, frame{ix: kid, kids: kid.Components()})
			}
			continue
		}
		order = append(order, top.ix)
		stack = stack[:len(stack)-1]
	}
	return order
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
