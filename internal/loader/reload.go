package loader

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/origadmin/classpath/internal/classpath"
)

// Reload installs one fresh DiscreteLoader for all of names so that the
// whole batch switches to new definitions at once. Sources are looked up on
// the extension path first, then on the system path. Nothing is installed
// unless every name is reloadable.
func (m *Manager) Reload(names ...string) error {
	if len(names) == 0 {
		return &classpath.Error{Op: "reload", Err: classpath.ErrNothingKnown}
	}
	base := m.BaseIndex()
	sources := make(map[string]classpath.Source, len(names))
	for _, name := range names {
		if m.IsCore(name) {
			return &classpath.Error{Op: "reload", Name: name, Reason: "core types are pinned", Err: classpath.ErrReloadRefused}
		}
		var src classpath.Source
		if base != nil {
			src = base.SourceOf(name)
		}
		if src == nil {
			src = m.system.SourceOf(name)
		}
		if src == nil {
			return &classpath.Error{Op: "reload", Name: name, Err: classpath.ErrNothingKnown}
		}
		if !classpath.Reloadable(src) {
			return &classpath.Error{Op: "reload", Name: name, Reason: "cannot reload class from " + src.String(), Err: classpath.ErrReloadRefused}
		}
		sources[name] = src
	}

	m.mu.Lock()
	m.loaders++
	seq := m.loaders
	dl := NewDiscreteLoader(fmt.Sprintf("reload-%d", seq), sources, m)
	for name := range sources {
		m.overlay[name] = overlayEntry{loader: dl, seq: seq}
	}
	m.clearCachesLocked()
	m.mu.Unlock()

	slog.Debug("Reloaded types", "loader", dl.ID(), "types", dl.Names())
	m.listeners.Notify()
	return nil
}

// ReloadPackage reloads every known type of pkg. The extension path is
// consulted first; the system path only when the extension path knows
// nothing about pkg. Use classpath.DefaultPackage for the unnamed package.
func (m *Manager) ReloadPackage(pkg string) error {
	var names []string
	if base := m.BaseIndex(); base != nil {
		names = base.TypesInPackage(pkg)
	}
	if len(names) == 0 {
		names = m.system.TypesInPackage(pkg)
	}
	if len(names) == 0 {
		return &classpath.Error{Op: "reload package", Name: pkg, Err: classpath.ErrNothingKnown}
	}
	sort.Strings(names)
	return m.Reload(names...)
}
