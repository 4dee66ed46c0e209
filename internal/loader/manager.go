package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/origadmin/classpath/internal/classfile"
	"github.com/origadmin/classpath/internal/classpath"
)

// DefaultCorePrefix is the namespace of the interpreter's own types.
const DefaultCorePrefix = "bsh."

// DefaultCacheSize bounds the positive resolution cache.
const DefaultCacheSize = 4096

// Generator produces bytes for types that exist only as generated or
// scripted definitions. It returns an error wrapping ErrTypeNotFound for
// names it does not know.
type Generator interface {
	GenerateType(name string) ([]byte, error)
}

// Options configures a Manager.
type Options struct {
	// System is the host classpath (boot and user layers). Required.
	System *classpath.Index
	// Core indexes the interpreter's own types. Names under CorePrefix are
	// only ever loaded from here. Defaults to System.
	Core       *classpath.Index
	CorePrefix string
	// Extension is the initial base path added on top of System.
	Extension []classpath.Entry
	External  Loader
	// Ambient returns the caller's context loader, or ErrAccessDenied when
	// it may not be consulted.
	Ambient   func() (Loader, error)
	Generator Generator
	CacheSize int
}

type overlayEntry struct {
	loader *DiscreteLoader
	seq    uint64
}

// Manager resolves type names through the chain returned by Handles and
// caches the outcome. It owns the extension path and the reload overlay.
type Manager struct {
	corePrefix string
	core       Loader
	system     *classpath.Index
	ambient    func() (Loader, error)
	generator  Generator

	mu          sync.Mutex
	host        *PathLoader
	hostWatch   *hostRefresher
	baseIndex   *classpath.Index
	base        *PathLoader
	unwatchBase func()
	external    Loader
	overlay     map[string]overlayEntry
	absent      map[string]struct{}
	generation  uint64
	loaders     uint64

	resolved  *lru.Cache[string, *Type]
	flight    singleflight.Group
	listeners *classpath.Registry
	unwatch   []func()
}

// New builds a Manager from opts.
func New(opts Options) (*Manager, error) {
	if opts.System == nil {
		return nil, errors.New("loader: system classpath is required")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Type](size)
	if err != nil {
		return nil, fmt.Errorf("loader: resolution cache: %w", err)
	}
	prefix := opts.CorePrefix
	if prefix == "" {
		prefix = DefaultCorePrefix
	}

	m := &Manager{
		corePrefix: prefix,
		system:     opts.System,
		host:       NewPathLoader("host", opts.System),
		ambient:    opts.Ambient,
		generator:  opts.Generator,
		external:   opts.External,
		overlay:    make(map[string]overlayEntry),
		absent:     make(map[string]struct{}),
		resolved:   cache,
		listeners:  classpath.NewRegistry(),
	}
	// Core types keep the first host loader even when the host is refreshed.
	m.core = m.host
	if opts.Core != nil {
		m.core = NewPathLoader("core", opts.Core)
		m.unwatch = append(m.unwatch, classpath.Watch(opts.Core.Listeners(), m))
	}
	m.hostWatch = &hostRefresher{m: m}
	m.unwatch = append(m.unwatch, classpath.Watch(opts.System.Listeners(), m.hostWatch))
	if len(opts.Extension) > 0 {
		m.installBaseLocked(classpath.NewIndex(opts.Extension, classpath.WithName("extension")))
	}
	return m, nil
}

func (m *Manager) ID() string { return "manager" }

// LoadType resolves name; it lets the Manager parent reload loaders.
func (m *Manager) LoadType(name string) (*Type, error) { return m.Resolve(name) }

// ResolveType resolves name.
func (m *Manager) ResolveType(name string) (*Type, error) { return m.Resolve(name) }

// Listeners is notified after every change that clears the caches.
func (m *Manager) Listeners() *classpath.Registry { return m.listeners }

// SystemIndex returns the host classpath.
func (m *Manager) SystemIndex() *classpath.Index { return m.system }

// BaseIndex returns the extension path, or nil when none was added.
func (m *Manager) BaseIndex() *classpath.Index {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseIndex
}

// CorePrefix returns the pinned core namespace.
func (m *Manager) CorePrefix() string { return m.corePrefix }

// IsCore reports whether name lives in the core namespace.
func (m *Manager) IsCore(name string) bool {
	return m.corePrefix != "" && strings.HasPrefix(name, m.corePrefix)
}

// Resolve returns the type named name, stopping at the first handle of
// the chain that defines it. Failures are cached until the next change.
func (m *Manager) Resolve(name string) (*Type, error) {
	if t, ok := m.resolved.Get(name); ok {
		return t, nil
	}
	m.mu.Lock()
	_, miss := m.absent[name]
	gen := m.generation
	m.mu.Unlock()
	if miss {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
	}

	// A lookup started before a change must not satisfy one started after it.
	key := fmt.Sprintf("%s@%d", name, gen)
	v, err, _ := m.flight.Do(key, func() (any, error) {
		return m.resolveChain(name, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Type), nil
}

func (m *Manager) resolveChain(name string, gen uint64) (*Type, error) {
	for _, h := range m.Handles(name) {
		t, err := h.Loader.LoadType(name)
		if err == nil {
			m.remember(name, t, gen)
			return t, nil
		}
		switch {
		case h.Kind == HandleOverlay:
			slog.Warn("Explicitly mapped type failed to load", "type", name, "loader", h.Loader.ID(), "error", err)
		case !errors.Is(err, ErrTypeNotFound):
			slog.Debug("Loader failed", "type", name, "handle", h.Kind, "error", err)
		}
	}
	m.forget(name, gen)
	return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
}

// Handles returns the resolution chain for name in precedence order. Core
// names have a single core handle; nothing can shadow them.
func (m *Manager) Handles(name string) []Handle {
	if m.IsCore(name) {
		return []Handle{{Kind: HandleCore, Loader: m.core}}
	}
	var hs []Handle
	m.mu.Lock()
	if o, ok := m.overlay[name]; ok {
		hs = append(hs, Handle{Kind: HandleOverlay, Loader: o.loader, Overlay: o.seq})
	}
	if m.base != nil {
		hs = append(hs, Handle{Kind: HandleExtension, Loader: m.base})
	}
	if m.external != nil {
		hs = append(hs, Handle{Kind: HandleExternal, Loader: m.external})
	}
	host := m.host
	m.mu.Unlock()

	if m.ambient != nil {
		l, err := m.ambient()
		switch {
		case err != nil:
			slog.Debug("Ambient loader unavailable", "type", name, "error", err)
		case l != nil:
			hs = append(hs, Handle{Kind: HandleAmbient, Loader: l})
		}
	}
	hs = append(hs, Handle{Kind: HandleHost, Loader: host})
	if m.generator != nil {
		hs = append(hs, Handle{Kind: HandleGenerated, Loader: generatedLoader{m}})
	}
	return hs
}

func (m *Manager) remember(name string, t *Type, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation == gen {
		m.resolved.Add(name, t)
	}
}

func (m *Manager) forget(name string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation == gen {
		m.absent[name] = struct{}{}
	}
}

// ClassExists reports whether name resolves.
func (m *Manager) ClassExists(name string) bool {
	_, err := m.Resolve(name)
	return err == nil
}

// CachedTypes returns the names currently in the positive cache.
func (m *Manager) CachedTypes() []string {
	names := m.resolved.Keys()
	sort.Strings(names)
	return names
}

// ClearCaches drops both resolution caches and notifies the listeners.
func (m *Manager) ClearCaches() {
	m.mu.Lock()
	m.clearCachesLocked()
	m.mu.Unlock()
	m.listeners.Notify()
}

func (m *Manager) clearCachesLocked() {
	m.resolved.Purge()
	m.absent = make(map[string]struct{})
	m.generation++
}

// ClassPathChanged is called by the indexes the Manager watches.
func (m *Manager) ClassPathChanged() { m.ClearCaches() }

// hostRefresher watches the system index. Types the host loader defined
// from a changed system path are dropped with the loader.
type hostRefresher struct {
	m *Manager
}

func (h *hostRefresher) ClassPathChanged() {
	m := h.m
	m.mu.Lock()
	m.host = NewPathLoader("host", m.system)
	m.mu.Unlock()
	m.ClearCaches()
}

// SetExternalLoader installs or, with nil, removes the external loader.
func (m *Manager) SetExternalLoader(l Loader) {
	m.mu.Lock()
	m.external = l
	m.mu.Unlock()
	m.ClassPathChanged()
}

// AddClassPath appends e to the extension path, creating the path on first use.
func (m *Manager) AddClassPath(e classpath.Entry) {
	m.mu.Lock()
	if m.baseIndex == nil {
		m.installBaseLocked(classpath.NewIndex([]classpath.Entry{e}, classpath.WithName("extension")))
		m.mu.Unlock()
		m.ClassPathChanged()
		return
	}
	ix := m.baseIndex
	m.mu.Unlock()
	ix.Add(e)
}

// SetClassPath replaces the extension path and drops every reload overlay.
func (m *Manager) SetClassPath(entries []classpath.Entry) {
	m.mu.Lock()
	m.installBaseLocked(classpath.NewIndex(entries, classpath.WithName("extension")))
	m.overlay = make(map[string]overlayEntry)
	m.mu.Unlock()
	m.ClassPathChanged()
}

// ReloadAll replaces the extension loader with a fresh one over a remapped
// extension path and drops every reload overlay. Without an extension path
// only the overlays are dropped.
func (m *Manager) ReloadAll() {
	m.mu.Lock()
	ix := m.baseIndex
	if ix != nil {
		m.loaders++
		m.base = NewPathLoader(fmt.Sprintf("extension-%d", m.loaders), ix)
	}
	m.overlay = make(map[string]overlayEntry)
	m.mu.Unlock()

	if ix != nil {
		ix.Reset()
		return
	}
	m.ClassPathChanged()
}

func (m *Manager) installBaseLocked(ix *classpath.Index) {
	if m.unwatchBase != nil {
		m.unwatchBase()
	}
	m.loaders++
	m.baseIndex = ix
	m.base = NewPathLoader(fmt.Sprintf("extension-%d", m.loaders), ix)
	m.unwatchBase = classpath.Watch(ix.Listeners(), m)
}

// Overlay returns the reload loader installed for name, if any.
func (m *Manager) Overlay(name string) (*DiscreteLoader, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overlay[name]
	return o.loader, ok
}

// DefineType registers generated bytes for name and reloads it so the next
// resolution returns the new definition.
func (m *Manager) DefineType(name string, b []byte) (*Type, error) {
	c, err := classfile.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", name, err)
	}
	if c.Name != name {
		return nil, fmt.Errorf("define %s: class file declares %s", name, c.Name)
	}
	ix := m.BaseIndex()
	if ix == nil {
		ix = m.system
	}
	ix.SetClassSource(name, classpath.GeneratedSource{Bytes: b})
	if err := m.Reload(name); err != nil {
		return nil, err
	}
	dl, ok := m.Overlay(name)
	if !ok {
		return nil, fmt.Errorf("define %s: overlay missing after reload", name)
	}
	return dl.LoadType(name)
}

// Close releases the Manager's subscriptions on its indexes.
func (m *Manager) Close() {
	m.mu.Lock()
	unwatch := append(m.unwatch, m.unwatchBase)
	m.unwatch, m.unwatchBase = nil, nil
	m.mu.Unlock()
	for _, cancel := range unwatch {
		if cancel != nil {
			cancel()
		}
	}
}

// generatedLoader is the last step of the chain: it asks the Generator for
// bytes and defines them through a reload.
type generatedLoader struct {
	m *Manager
}

func (g generatedLoader) ID() string { return "generated" }

func (g generatedLoader) LoadType(name string) (*Type, error) {
	b, err := g.m.generator.GenerateType(name)
	if err != nil {
		return nil, err
	}
	return g.m.DefineType(name, b)
}
