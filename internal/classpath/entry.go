package classpath

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/origadmin/classpath/internal/classfile"
)

// EntryKind identifies the shape of a classpath component.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindArchive
	KindBootLibrary
	KindGenerated
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "dir"
	case KindArchive:
		return "archive"
	case KindBootLibrary:
		return "boot"
	case KindGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Entry is one immutable classpath component. Walk yields the canonical
// dotted names of the types it contains.
type Entry interface {
	Kind() EntryKind
	Location() string
	// Source is the origin recorded for every name yielded by Walk.
	Source() Source
	Walk(fn func(name string) error) error
}

const classSuffix = ".class"

// Dir returns a directory entry rooted at path.
func Dir(path string) Entry {
	root, err := filepath.Abs(path)
	if err != nil {
		root = filepath.Clean(path)
	}
	return dirEntry{root: root}
}

// Archive returns a zip or jar entry.
func Archive(path string) Entry {
	return archiveEntry{path: filepath.Clean(path), kind: KindArchive}
}

// BootLibrary returns the entry for the host runtime archive.
func BootLibrary(path string) Entry {
	return archiveEntry{path: filepath.Clean(path), kind: KindBootLibrary}
}

// Generated returns an entry standing for exactly one generated type. The
// type name is read from the class bytes.
func Generated(b []byte) (Entry, error) {
	c, err := classfile.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("generated entry: %w", err)
	}
	return generatedEntry{name: c.Name, src: GeneratedSource{Bytes: b}}, nil
}

// ParsePath splits an OS path list into directory and archive entries.
// Empty elements are skipped.
func ParsePath(list string) []Entry {
	var entries []Entry
	for _, p := range filepath.SplitList(list) {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		entries = append(entries, EntryFor(p))
	}
	return entries
}

// EntryFor picks the entry kind for a single path by its suffix.
func EntryFor(path string) Entry {
	if isArchiveName(path) {
		return Archive(path)
	}
	return Dir(path)
}

func isArchiveName(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}

// canonicalName converts a class file path relative to its entry into a
// dotted type name. It reports false for names that are not types.
func canonicalName(rel string) (string, bool) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if !strings.HasSuffix(rel, classSuffix) {
		return "", false
	}
	name := strings.ReplaceAll(strings.TrimSuffix(rel, classSuffix), "/", ".")
	_, simple := classfile.SplitName(name)
	if simple == "module-info" || simple == "package-info" || simple == "" {
		return "", false
	}
	return name, true
}

type dirEntry struct {
	root string
}

func (e dirEntry) Kind() EntryKind  { return KindDirectory }
func (e dirEntry) Location() string { return e.root }
func (e dirEntry) Source() Source   { return DirSource{BaseDir: e.root} }

func (e dirEntry) Walk(fn func(name string) error) error {
	prefix := e.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, classSuffix) {
			return nil
		}
		if !strings.HasPrefix(path, prefix) {
			panic(fmt.Sprintf("classpath: walked file %q outside of its root %q", path, e.root))
		}
		name, ok := canonicalName(strings.TrimPrefix(path, prefix))
		if !ok {
			return nil
		}
		return fn(name)
	})
}

type archiveEntry struct {
	path string
	kind EntryKind
}

func (e archiveEntry) Kind() EntryKind  { return e.kind }
func (e archiveEntry) Location() string { return e.path }
func (e archiveEntry) Source() Source   { return ArchiveSource{Path: e.path} }

func (e archiveEntry) Walk(fn func(name string) error) error {
	zr, err := zip.OpenReader(e.path)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := canonicalName(f.Name)
		if !ok {
			continue
		}
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

type generatedEntry struct {
	name string
	src  GeneratedSource
}

func (e generatedEntry) Kind() EntryKind  { return KindGenerated }
func (e generatedEntry) Location() string { return "generated:" + e.name }
func (e generatedEntry) Source() Source   { return e.src }

func (e generatedEntry) Walk(fn func(name string) error) error { return fn(e.name) }

// exists reports whether path names an existing file or directory.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
