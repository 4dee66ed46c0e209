package fixture

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/classpath/internal/classfile"
)

func TestCompile(t *testing.T) {
	c, err := Compile(`
public class com.acme.Handler extends com.acme.Base implements java.lang.Runnable,java.io.Closeable
# constructors
ctor public ()V
method public static varargs f (Ljava/lang/String;[Ljava/lang/String;)V
field private count I
`)
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Handler", c.Name)
	assert.Equal(t, "com.acme.Base", c.Super)
	assert.Equal(t, []string{"java.lang.Runnable", "java.io.Closeable"}, c.Interfaces)
	require.Len(t, c.Methods, 2)
	assert.True(t, c.Methods[0].IsConstructor())
	assert.True(t, c.Methods[1].Flags.IsVarArgs())
	assert.True(t, c.Methods[1].Flags.IsStatic())
	require.Len(t, c.Fields, 1)
	assert.True(t, c.Fields[0].Flags.IsPrivate())
}

func TestCompileInterface(t *testing.T) {
	c, err := Compile("public interface a.Greeter extends a.Named,a.Other")
	require.NoError(t, err)
	assert.True(t, c.Flags.IsInterface())
	assert.Equal(t, classfile.Object.Name, c.Super)
	assert.Equal(t, []string{"a.Named", "a.Other"}, c.Interfaces)
}

func TestCompileErrors(t *testing.T) {
	for _, decl := range []string{
		"",
		"public struct a.B",
		"class a.B\nmethod f",
		"class a.B\nfield x Q",
		"class a.B\nop x",
	} {
		_, err := Compile(decl)
		assert.Error(t, err, decl)
	}
}

func TestWriteTree(t *testing.T) {
	dir := t.TempDir()
	err := WriteTree(dir, `
-- classes/com/acme/A.class --
-- classes/README --
hello
-- lib/util.jar!com/util/B.class --
public class com.util.B extends com.acme.A
-- lib/util.jar!com/util/C.class --
-- classes/Top.class --
`)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "classes", "com", "acme", "A.class"))
	require.NoError(t, err)
	c, err := classfile.ParseBytes(b)
	require.NoError(t, err)
	assert.Equal(t, "com.acme.A", c.Name)
	assert.True(t, c.Flags.IsPublic())

	readme, err := os.ReadFile(filepath.Join(dir, "classes", "README"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(readme))

	zr, err := zip.OpenReader(filepath.Join(dir, "lib", "util.jar"))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "com/util/B.class", zr.File[0].Name)
	assert.Equal(t, "com/util/C.class", zr.File[1].Name)
	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	b, err = io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	c, err = classfile.ParseBytes(b)
	require.NoError(t, err)
	assert.Equal(t, "com.util.C", c.Name)

	b, err = os.ReadFile(filepath.Join(dir, "classes", "Top.class"))
	require.NoError(t, err)
	c, err = classfile.ParseBytes(b)
	require.NoError(t, err)
	assert.Equal(t, "Top", c.Name)
}
