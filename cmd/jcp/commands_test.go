package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/classpath/internal/classpath"
	"github.com/origadmin/classpath/internal/config"
	"github.com/origadmin/classpath/internal/fixture"
)

const cliTree = `
-- a/com/acme/A.class --
public class com.acme.A
ctor public ()V
method public f (Ljava/lang/String;)V
field public static N I
-- a/com/acme/Handler.class --
-- a/org/x/Handler.class --
-- b/com/acme/A.class --
-- b/com/x/Only.class --
`

func setup(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, fixture.WriteTree(root, cliTree))
	cfg := config.NewConfig()
	cfg.ClassPath = filepath.Join(root, "a")
	return root, cfg
}

func runCmd(t *testing.T, cfg *config.Config, name string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(cfg, &out, name, args)
	return out.String(), err
}

func TestInspectCommands(t *testing.T) {
	_, cfg := setup(t)

	out, err := runCmd(t, cfg, "packages")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme\n")
	assert.Contains(t, out, "org.x\n")

	out, err = runCmd(t, cfg, "list", "com.acme")
	require.NoError(t, err)
	assert.Equal(t, "com.acme.A\ncom.acme.Handler\n", out)

	_, err = runCmd(t, cfg, "list", "com.none")
	assert.ErrorIs(t, err, classpath.ErrNothingKnown)

	out, err = runCmd(t, cfg, "which", "com.acme.A")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme.A\thost\t")

	out, err = runCmd(t, cfg, "resolve", "A", "Handler")
	assert.ErrorIs(t, err, classpath.ErrAmbiguous)
	assert.Contains(t, out, "A\tcom.acme.A\n")
	assert.Contains(t, out, "Handler\tambiguous: ")
}

func TestMemberCommands(t *testing.T) {
	_, cfg := setup(t)

	out, err := runCmd(t, cfg, "method", "com.acme.A", "f", "null")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme.A.f(java.lang.String)")

	out, err = runCmd(t, cfg, "new", "com.acme.A")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme.A()")

	out, err = runCmd(t, cfg, "field", "com.acme.A", "N")
	require.NoError(t, err)
	assert.Contains(t, out, "int com.acme.A.N")

	_, err = runCmd(t, cfg, "method", "com.acme.A", "g")
	assert.Error(t, err)
}

func TestReloadCommands(t *testing.T) {
	_, cfg := setup(t)

	out, err := runCmd(t, cfg, "reload", "com.acme.A")
	require.NoError(t, err)
	assert.Contains(t, out, "reload-")

	out, err = runCmd(t, cfg, "reload-package", "com.acme")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme.Handler\treload-")
}

func TestDiffAndMaterialize(t *testing.T) {
	root, cfg := setup(t)

	out, err := runCmd(t, cfg, "diff", filepath.Join(root, "a"), filepath.Join(root, "b"))
	require.NoError(t, err)
	assert.Contains(t, out, "-com.acme.Handler\n")
	assert.Contains(t, out, "+com.x.Only\n")
	assert.NotContains(t, out, "-com.acme.A\n")

	demo := filepath.Join(root, "demo.txtar")
	require.NoError(t, os.WriteFile(demo, []byte("-- classes/com/demo/Demo.class --\n"), 0o644))
	dest := filepath.Join(root, "out")
	out, err = runCmd(t, cfg, "materialize", demo, dest)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 files")
	assert.FileExists(t, filepath.Join(dest, "classes", "com", "demo", "Demo.class"))
}

func TestUnknownCommand(t *testing.T) {
	_, cfg := setup(t)
	_, err := runCmd(t, cfg, "frobnicate")
	assert.Error(t, err)
	_, err = runCmd(t, cfg, "list")
	assert.Error(t, err)
}
