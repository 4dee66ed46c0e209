package classpath

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/classpath/internal/fixture"
)

type recordingFeedback struct {
	mu      sync.Mutex
	starts  int
	mapped  []string
	errs    []string
	endings int
}

func (f *recordingFeedback) StartMapping() { f.mu.Lock(); f.starts++; f.mu.Unlock() }
func (f *recordingFeedback) Mapping(msg string) {
	f.mu.Lock()
	f.mapped = append(f.mapped, msg)
	f.mu.Unlock()
}
func (f *recordingFeedback) ErrorWhileMapping(msg string) {
	f.mu.Lock()
	f.errs = append(f.errs, msg)
	f.mu.Unlock()
}
func (f *recordingFeedback) EndMapping() { f.mu.Lock(); f.endings++; f.mu.Unlock() }

func writeTree(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, fixture.WriteTree(dir, src))
	return dir
}

const layeredTree = `
-- first/com/acme/Handler.class --
-- first/com/acme/Widget.class --
-- first/Top.class --
-- second/com/acme/Handler.class --
-- second/org/other/Handler.class --
-- lib/tools.jar!com/tools/Hammer.class --
-- lib/tools.jar!com/acme/Widget.class --
-- lib/tools.jar!META-INF/MANIFEST.MF --
Manifest-Version: 1.0
-- lib/tools.jar!module-info.class --
public class module-info
`

func TestSourceOfFirstMatchWins(t *testing.T) {
	root := writeTree(t, layeredTree)
	first, second := filepath.Join(root, "first"), filepath.Join(root, "second")
	fb := &recordingFeedback{}
	ix := NewIndex([]Entry{Dir(first), Dir(second)}, WithFeedback(fb))

	assert.Equal(t, DirSource{BaseDir: first}, ix.SourceOf("com.acme.Handler"))
	assert.Equal(t, DirSource{BaseDir: second}, ix.SourceOf("org.other.Handler"))
	assert.Nil(t, ix.SourceOf("com.acme.Missing"))

	// A duplicate added later never displaces the earlier mapping.
	ix.Add(Dir(second))
	ix.Add(Archive(filepath.Join(root, "lib", "tools.jar")))
	assert.Equal(t, DirSource{BaseDir: first}, ix.SourceOf("com.acme.Handler"))
	assert.Equal(t, DirSource{BaseDir: first}, ix.SourceOf("com.acme.Widget"))
	assert.Equal(t, ArchiveSource{Path: filepath.Join(root, "lib", "tools.jar")}, ix.SourceOf("com.tools.Hammer"))
	assert.Nil(t, ix.SourceOf("module-info"))
}

func TestInsureInitializedIsIdempotent(t *testing.T) {
	root := writeTree(t, layeredTree)
	fb := &recordingFeedback{}
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first")), Archive(filepath.Join(root, "lib", "tools.jar"))}, WithFeedback(fb))

	ix.InsureInitialized()
	require.Equal(t, int64(2), ix.Traversals())
	types := ix.AllTypes()
	pkgs := ix.Packages()

	ix.InsureInitialized()
	assert.Equal(t, int64(2), ix.Traversals(), "second initialization must not traverse")
	assert.Equal(t, types, ix.AllTypes())
	assert.Equal(t, pkgs, ix.Packages())
	assert.Equal(t, 1, fb.starts)
	assert.Len(t, fb.mapped, 2)

	ix.Reset()
	assert.False(t, ix.Initialized())
	assert.Equal(t, types, ix.AllTypes())
	assert.Equal(t, int64(4), ix.Traversals())
}

func TestMappingErrorDoesNotAbortSiblings(t *testing.T) {
	root := writeTree(t, layeredTree)
	fb := &recordingFeedback{}
	ix := NewIndex([]Entry{
		Archive(filepath.Join(root, "missing.jar")),
		Dir(filepath.Join(root, "nowhere")),
		Dir(filepath.Join(root, "first")),
	}, WithFeedback(fb))

	assert.NotNil(t, ix.SourceOf("com.acme.Handler"))
	assert.Len(t, fb.errs, 2)
	assert.Equal(t, []string{"com.acme.Handler", "com.acme.Widget"}, ix.TypesInPackage("com.acme"))
}

func TestCompositeUnion(t *testing.T) {
	root := writeTree(t, `
-- a/p/X.class --
-- b/p/Y.class --
-- b/q/Z.class --
`)
	a := NewIndex([]Entry{Dir(filepath.Join(root, "a"))})
	b := NewIndex([]Entry{Dir(filepath.Join(root, "b"))})
	require.NoError(t, a.AddComponent(b))

	assert.Equal(t, []string{"p.X", "p.Y"}, a.TypesInPackage("p"))
	assert.Equal(t, []string{"q.Z"}, a.TypesInPackage("q"))
	assert.Empty(t, a.TypesInPackage("nothing"))
	assert.NotNil(t, a.TypesInPackage("nothing"))
	assert.Equal(t, DirSource{BaseDir: filepath.Join(root, "b")}, a.SourceOf("q.Z"))
	assert.Equal(t, []string{"p", "q"}, a.Packages())
	assert.True(t, b.Initialized(), "children are initialized with their parent")
}

func TestDefaultPackage(t *testing.T) {
	root := writeTree(t, layeredTree)
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first"))})
	assert.Equal(t, []string{"Top"}, ix.TypesInPackage(DefaultPackage))
	assert.Contains(t, ix.Packages(), DefaultPackage)
}

func TestResolveUnqualified(t *testing.T) {
	root := writeTree(t, layeredTree)
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first")), Dir(filepath.Join(root, "second"))})

	name, err := ix.ResolveUnqualified("Widget")
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Widget", name)

	_, err = ix.ResolveUnqualified("Handler")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguous)
	var amb *AmbiguousNameError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, []string{"com.acme.Handler", "org.other.Handler"}, amb.Candidates)

	_, err = ix.ResolveUnqualified("Hammer")
	assert.ErrorIs(t, err, ErrNotFound)

	// The name index is rebuilt after the index changes.
	ix.Add(Archive(filepath.Join(root, "lib", "tools.jar")))
	name, err = ix.ResolveUnqualified("Hammer")
	require.NoError(t, err)
	assert.Equal(t, "com.tools.Hammer", name)

	assert.Equal(t, []string{"Hammer", "Handler"}, ix.NameIndex().Complete("Ha"))
	assert.Equal(t, []string{"com.acme.Handler", "com.acme.Widget"}, ix.NameIndex().Complete("com.acme."))
}

func TestResolveUnqualifiedSeesComponents(t *testing.T) {
	root := writeTree(t, layeredTree)
	parent := NewIndex([]Entry{Dir(filepath.Join(root, "first"))})
	_, err := parent.ResolveUnqualified("Hammer")
	require.ErrorIs(t, err, ErrNotFound)

	child := NewIndex([]Entry{Archive(filepath.Join(root, "lib", "tools.jar"))})
	require.NoError(t, parent.AddComponent(child))
	name, err := parent.ResolveUnqualified("Hammer")
	require.NoError(t, err)
	assert.Equal(t, "com.tools.Hammer", name)
}

func TestSetClassSourceTakesPriority(t *testing.T) {
	root := writeTree(t, layeredTree)
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first"))})
	gen := GeneratedSource{Bytes: []byte{1, 2, 3}}

	ix.SetClassSource("com.acme.Handler", gen)
	assert.Equal(t, gen, ix.SourceOf("com.acme.Handler"))
	assert.Equal(t, int64(0), ix.Traversals(), "explicit source must not force mapping")

	ix.SetClassSource("gen.Fresh", gen)
	assert.Contains(t, ix.TypesInPackage("gen"), "gen.Fresh")

	ix.Reset()
	assert.Equal(t, gen, ix.SourceOf("com.acme.Handler"))
	assert.Contains(t, ix.AllTypes(), "gen.Fresh")
}

func TestAddComponentRejectsCycles(t *testing.T) {
	a, b, c := NewIndex(nil), NewIndex(nil), NewIndex(nil)
	require.NoError(t, a.AddComponent(b))
	require.NoError(t, b.AddComponent(c))

	assert.ErrorIs(t, c.AddComponent(a), ErrCycle)
	assert.ErrorIs(t, a.AddComponent(a), ErrCycle)
	assert.Error(t, a.AddComponent(nil))

	// Diamonds are fine.
	require.NoError(t, a.AddComponent(c))
	a.InsureInitialized()
	assert.True(t, c.Initialized())
}

func TestComponentChangesAreForwarded(t *testing.T) {
	root := writeTree(t, layeredTree)
	parent := NewIndex(nil)
	child := NewIndex(nil)
	require.NoError(t, parent.AddComponent(child))

	l := &countingListener{}
	Watch(parent.Listeners(), l)

	child.Add(Dir(filepath.Join(root, "first")))
	assert.Equal(t, int64(1), l.calls.Load())
	assert.Equal(t, []string{"com.acme.Handler", "com.acme.Widget"}, parent.TypesInPackage("com.acme"))

	child.Reset()
	assert.Equal(t, int64(2), l.calls.Load())

	parent.Close()
	child.Reset()
	assert.Equal(t, int64(2), l.calls.Load(), "closed parent no longer forwards")
}

func TestConcurrentQueries(t *testing.T) {
	root := writeTree(t, layeredTree)
	ix := NewIndex([]Entry{Dir(filepath.Join(root, "first")), Dir(filepath.Join(root, "second"))})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, ix.SourceOf("org.other.Handler"))
			assert.Len(t, ix.TypesInPackage("com.acme"), 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(2), ix.Traversals())
}

func TestParsePath(t *testing.T) {
	list := "classes" + string(filepath.ListSeparator) + " " + string(filepath.ListSeparator) + "lib/a.JAR" + string(filepath.ListSeparator) + "b.zip"
	entries := ParsePath(list)
	require.Len(t, entries, 3)
	assert.Equal(t, KindDirectory, entries[0].Kind())
	assert.Equal(t, KindArchive, entries[1].Kind())
	assert.Equal(t, KindArchive, entries[2].Kind())
	assert.True(t, filepath.IsAbs(entries[0].Location()))
}

func TestGeneratedEntry(t *testing.T) {
	b, err := fixture.ClassBytes("public class gen.Made")
	require.NoError(t, err)
	e, err := Generated(b)
	require.NoError(t, err)
	assert.Equal(t, KindGenerated, e.Kind())

	ix := NewIndex([]Entry{e})
	assert.Equal(t, GeneratedSource{Bytes: b}, ix.SourceOf("gen.Made"))
	got, err := ReadSource(ix.SourceOf("gen.Made"), "gen.Made")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = Generated([]byte("nope"))
	assert.Error(t, err)
}

func TestReadSource(t *testing.T) {
	root := writeTree(t, layeredTree)
	jar := filepath.Join(root, "lib", "tools.jar")

	b, err := ReadSource(ArchiveSource{Path: jar}, "com.tools.Hammer")
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	b, err = ReadSource(DirSource{BaseDir: filepath.Join(root, "first")}, "com.acme.Widget")
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	_, err = ReadSource(DirSource{BaseDir: filepath.Join(root, "first")}, "com.acme.Nope")
	assert.Error(t, err)
	_, err = ReadSource(nil, "x.Y")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.False(t, Reloadable(ArchiveSource{Path: jar}))
	assert.True(t, Reloadable(DirSource{}))
	assert.False(t, Reloadable(nil))
}

func TestErrorMessages(t *testing.T) {
	err := &Error{Op: "reload", Name: "a.B", Err: ErrReloadRefused}
	assert.ErrorIs(t, err, ErrReloadRefused)
	assert.Contains(t, err.Error(), "archive")

	err = &Error{Op: "reload package", Name: "a", Err: ErrNothingKnown}
	assert.Contains(t, err.Error(), "nothing known")

	err = &Error{Op: "reload", Name: "bsh.X", Reason: "core types are pinned", Err: ErrReloadRefused}
	assert.Equal(t, "reload bsh.X: core types are pinned", err.Error())
	assert.ErrorIs(t, err, ErrReloadRefused)
}
