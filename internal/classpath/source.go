package classpath

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/origadmin/classpath/internal/classfile"
)

// Source records where the bytes of a type come from.
type Source interface {
	fmt.Stringer
	isSource()
}

// DirSource is a class file below a directory entry.
type DirSource struct {
	BaseDir string
}

// ArchiveSource is a member of a zip or jar. Its bytes belong to the loader
// that owns the whole archive, so archive types are never reloadable.
type ArchiveSource struct {
	Path string
}

// GeneratedSource holds bytes supplied by a generator.
type GeneratedSource struct {
	Bytes []byte
}

func (DirSource) isSource()       {}
func (ArchiveSource) isSource()   {}
func (GeneratedSource) isSource() {}

func (s DirSource) String() string       { return "dir:" + s.BaseDir }
func (s ArchiveSource) String() string   { return "archive:" + s.Path }
func (s GeneratedSource) String() string { return fmt.Sprintf("generated:%d bytes", len(s.Bytes)) }

// Reloadable reports whether a type from src may be superseded by reload.
func Reloadable(src Source) bool {
	_, isArchive := src.(ArchiveSource)
	return src != nil && !isArchive
}

// ReadSource returns the class bytes of name from src.
func ReadSource(src Source, name string) ([]byte, error) {
	rel := classfile.InternalName(name) + classSuffix
	switch s := src.(type) {
	case DirSource:
		b, err := os.ReadFile(filepath.Join(s.BaseDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", name, s.BaseDir, err)
		}
		return b, nil
	case GeneratedSource:
		return s.Bytes, nil
	case ArchiveSource:
		return readArchiveMember(s.Path, rel)
	case nil:
		return nil, fmt.Errorf("read %s: %w", name, ErrNotFound)
	default:
		return nil, fmt.Errorf("read %s: unsupported source %T", name, src)
	}
}

func readArchiveMember(path, member string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()
	f, err := zr.Open(member)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", member, path, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
