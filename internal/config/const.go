// Package config holds the application constants and the runtime settings
// of the jcp tool.
package config

// Global constants for the application.
const (
	Application = "jcp"
	Description = "Inspect Java classpaths, resolve types and members, reload classes"
	WebSite     = "https://github.com/origadmin/classpath"
	UI          = "jcp"
)

// Settings read from the environment or an env file.
const (
	KeyClassPath   = "CLASSPATH"
	KeyJavaHome    = "JAVA_HOME"
	KeyBootLibrary = "JCP_BOOT_LIBRARY"
	KeyExtension   = "JCP_EXTENSION"
	KeyCorePath    = "JCP_CORE_PATH"
	KeyCorePrefix  = "JCP_CORE_PREFIX"
	KeyAccessible  = "JCP_ACCESSIBLE"
	KeyCacheSize   = "JCP_CACHE_SIZE"
)

// Keys lists every setting Load recognizes.
var Keys = []string{
	KeyClassPath,
	KeyJavaHome,
	KeyBootLibrary,
	KeyExtension,
	KeyCorePath,
	KeyCorePrefix,
	KeyAccessible,
	KeyCacheSize,
}
