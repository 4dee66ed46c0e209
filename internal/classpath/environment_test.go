package classpath

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFunc(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDiscoverEnvironment(t *testing.T) {
	root := writeTree(t, `
-- jdk/jre/lib/rt.jar!java/lang/Object.class --
public class java.lang.Object
-- jdk/jre/lib/rt.jar!java/lang/String.class --
-- app/classes/com/app/Main.class --
public class com.app.Main
-- app/lib/dep.jar!com/dep/Util.class --
`)
	cp := filepath.Join(root, "app", "classes") + string(filepath.ListSeparator) + filepath.Join(root, "app", "lib", "dep.jar")
	env, err := DiscoverEnvironment(envFunc(map[string]string{
		EnvJavaHome:  filepath.Join(root, "jdk"),
		EnvClassPath: cp,
	}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "jdk", "jre", "lib", "rt.jar"), env.BootLibrary)
	require.Len(t, env.UserPath, 2)

	sys, err := NewSystemIndex(env)
	require.NoError(t, err)
	assert.Equal(t, ArchiveSource{Path: env.BootLibrary}, sys.SourceOf("java.lang.String"))
	assert.Equal(t, DirSource{BaseDir: filepath.Join(root, "app", "classes")}, sys.SourceOf("com.app.Main"))
	assert.NotNil(t, sys.SourceOf("com.dep.Util"))
	assert.Len(t, sys.Components(), 2)
	assert.Equal(t, KindBootLibrary, sys.Components()[0].Entries()[0].Kind())
}

func TestDiscoverEnvironmentDefaults(t *testing.T) {
	env, err := DiscoverEnvironment(envFunc(nil))
	require.NoError(t, err)
	assert.Empty(t, env.BootLibrary)
	require.Len(t, env.UserPath, 1)
	wd, _ := os.Getwd()
	assert.Equal(t, wd, env.UserPath[0].Location())

	_, err = DiscoverEnvironment(envFunc(map[string]string{EnvBootLibrary: filepath.Join(t.TempDir(), "none.jar")}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocateBootLibrary(t *testing.T) {
	root := writeTree(t, `
-- a.jar!java/util/List.class --
-- b.jar!java/lang/Object.class --
public class java.lang.Object
`)
	got, err := LocateBootLibrary(filepath.Join(root, "missing.jar"), filepath.Join(root, "a.jar"), filepath.Join(root, "b.jar"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b.jar"), got)

	_, err = LocateBootLibrary(filepath.Join(root, "a.jar"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvironmentCache(t *testing.T) {
	var calls atomic.Int32
	c := NewEnvironmentCache(func() (*Environment, error) {
		calls.Add(1)
		return &Environment{JavaHome: "/jdk"}, nil
	})
	a, err := c.Get()
	require.NoError(t, err)
	b, _ := c.Get()
	assert.Same(t, a, b)
	assert.Equal(t, int32(1), calls.Load())
}
