package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/origadmin/classpath/internal/classpath"
	"github.com/origadmin/classpath/internal/loader"
)

// Config holds the settings a jcp run is built from.
type Config struct {
	ClassPath   string
	JavaHome    string
	BootLibrary string
	// Extension is the path list added on top of the system classpath.
	Extension string
	// CorePath holds the pinned core types. Empty means the system path.
	CorePath   string
	CorePrefix string
	Accessible bool
	CacheSize  int
}

// NewConfig creates a configuration with default values.
func NewConfig() *Config {
	return &Config{
		CorePrefix: loader.DefaultCorePrefix,
		CacheSize:  loader.DefaultCacheSize,
	}
}

// Load builds a Config from envFile, when set, overlaid by getenv
// (os.Getenv when nil). The env file never modifies the process
// environment.
func Load(envFile string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := NewConfig()
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := cfg.Set(k, values[k]); err != nil {
				return nil, fmt.Errorf("env file %s: %w", envFile, err)
			}
		}
	}
	for _, k := range Keys {
		if v := getenv(k); v != "" {
			if err := cfg.Set(k, v); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// Set applies a single setting. Unknown keys are ignored.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyClassPath:
		c.ClassPath = value
	case KeyJavaHome:
		c.JavaHome = value
	case KeyBootLibrary:
		c.BootLibrary = value
	case KeyExtension:
		c.Extension = value
	case KeyCorePath:
		c.CorePath = value
	case KeyCorePrefix:
		c.CorePrefix = value
	case KeyAccessible:
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Accessible = on
	case KeyCacheSize:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid cache size %q", key, value)
		}
		c.CacheSize = n
	default:
		slog.Debug("Ignoring unknown setting", "key", key)
	}
	return nil
}

// Getenv answers environment lookups from the configuration, so the
// classpath environment can be discovered from it.
func (c *Config) Getenv(key string) string {
	switch key {
	case KeyClassPath:
		return c.ClassPath
	case KeyJavaHome:
		return c.JavaHome
	case KeyBootLibrary:
		return c.BootLibrary
	case KeyExtension:
		return c.Extension
	case KeyCorePath:
		return c.CorePath
	case KeyCorePrefix:
		return c.CorePrefix
	case KeyAccessible:
		return strconv.FormatBool(c.Accessible)
	case KeyCacheSize:
		return strconv.Itoa(c.CacheSize)
	}
	return ""
}

// Environment discovers the host environment described by c.
func (c *Config) Environment() (*classpath.Environment, error) {
	return classpath.DiscoverEnvironment(c.Getenv)
}

// ManagerOptions builds loader options over a system index.
func (c *Config) ManagerOptions(system *classpath.Index) loader.Options {
	opts := loader.Options{
		System:     system,
		Extension:  classpath.ParsePath(c.Extension),
		CorePrefix: c.CorePrefix,
		CacheSize:  c.CacheSize,
	}
	if core := classpath.ParsePath(c.CorePath); len(core) > 0 {
		opts.Core = classpath.NewIndex(core, classpath.WithName("core"))
	}
	return opts
}
