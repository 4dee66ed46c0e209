package classpath

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Environment variables read by DiscoverEnvironment.
const (
	EnvClassPath   = "CLASSPATH"
	EnvJavaHome    = "JAVA_HOME"
	EnvBootLibrary = "JCP_BOOT_LIBRARY"
)

// CoreTypeFile is the class file of a type every boot library defines; the
// archive holding it is taken as the boot library.
const CoreTypeFile = "java/lang/Object.class"

// Environment describes the host runtime the system classpath is built from.
// It is an explicit value so callers decide when discovery happens and how
// long its result lives.
type Environment struct {
	JavaHome    string
	BootLibrary string
	UserPath    []Entry
}

// DiscoverEnvironment reads the host launch environment through getenv
// (os.Getenv when nil). A missing boot library is not an error; a boot
// library named explicitly must exist.
func DiscoverEnvironment(getenv func(string) string) (*Environment, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := &Environment{JavaHome: getenv(EnvJavaHome)}

	cp := getenv(EnvClassPath)
	if cp == "" {
		cp = "."
	}
	env.UserPath = ParsePath(cp)

	if boot := getenv(EnvBootLibrary); boot != "" {
		if !exists(boot) {
			return nil, fmt.Errorf("boot library %s: %w", boot, os.ErrNotExist)
		}
		env.BootLibrary = boot
		return env, nil
	}
	if env.JavaHome != "" {
		boot, err := LocateBootLibrary(BootCandidates(env.JavaHome)...)
		if err != nil {
			slog.Debug("No boot library found", "javaHome", env.JavaHome, "error", err)
		}
		env.BootLibrary = boot
	}
	return env, nil
}

// BootCandidates lists the archives under javaHome that may hold the core types.
func BootCandidates(javaHome string) []string {
	return []string{
		filepath.Join(javaHome, "jre", "lib", "rt.jar"),
		filepath.Join(javaHome, "lib", "rt.jar"),
		filepath.Join(javaHome, "jre", "lib", "classes.jar"),
		filepath.Join(javaHome, "lib", "classes.jar"),
	}
}

// LocateBootLibrary returns the first candidate archive that contains CoreTypeFile.
func LocateBootLibrary(candidates ...string) (string, error) {
	for _, path := range candidates {
		if !exists(path) {
			continue
		}
		ok, err := archiveContains(path, CoreTypeFile)
		if err != nil {
			slog.Debug("Skipping boot library candidate", "path", path, "error", err)
			continue
		}
		if ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("boot library holding %s: %w", CoreTypeFile, ErrNotFound)
}

func archiveContains(path, member string) (bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false, err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == member {
			return true, nil
		}
	}
	return false, nil
}

// BootEntries returns the boot library entry, if any.
func (e *Environment) BootEntries() []Entry {
	if e == nil || e.BootLibrary == "" {
		return nil
	}
	return []Entry{BootLibrary(e.BootLibrary)}
}

// NewBootIndex indexes the boot library of env.
func NewBootIndex(env *Environment, opts ...Option) *Index {
	return NewIndex(env.BootEntries(), append([]Option{WithName("boot")}, opts...)...)
}

// NewUserIndex indexes the user path of env.
func NewUserIndex(env *Environment, opts ...Option) *Index {
	var entries []Entry
	if env != nil {
		entries = env.UserPath
	}
	return NewIndex(entries, append([]Option{WithName("user")}, opts...)...)
}

// NewSystemIndex composes the boot and user indexes of env, boot first.
func NewSystemIndex(env *Environment, opts ...Option) (*Index, error) {
	sys := NewIndex(nil, append([]Option{WithName("system")}, opts...)...)
	if err := sys.AddComponent(NewBootIndex(env, opts...)); err != nil {
		return nil, err
	}
	if err := sys.AddComponent(NewUserIndex(env, opts...)); err != nil {
		return nil, err
	}
	return sys, nil
}

// EnvironmentCache memoizes one discovery for the lifetime of its owner.
type EnvironmentCache struct {
	once     sync.Once
	discover func() (*Environment, error)
	env      *Environment
	err      error
}

// NewEnvironmentCache wraps discover so it runs at most once.
func NewEnvironmentCache(discover func() (*Environment, error)) *EnvironmentCache {
	return &EnvironmentCache{discover: discover}
}

// Get returns the memoized environment.
func (c *EnvironmentCache) Get() (*Environment, error) {
	c.once.Do(func() {
		c.env, c.err = c.discover()
	})
	return c.env, c.err
}
