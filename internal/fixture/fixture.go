// Package fixture materializes class trees described in txtar archives.
//
// Each archive member whose name ends in ".class" holds a short textual
// declaration that is compiled to real class bytes:
//
//	-- com/acme/Handler.class --
//	public class com.acme.Handler extends com.acme.Base implements java.lang.Runnable
//	ctor public ()V
//	method public varargs f (Ljava/lang/String;[Ljava/lang/String;)V
//	field public static COUNT I
//
// The first directory of a member path is the classpath root it lives in,
// so an empty body in "classes/com/acme/X.class" declares the public class
// com.acme.X. A member name of the form "lib/a.jar!com/acme/X.class" is
// written into the zip archive lib/a.jar instead of the directory tree and
// is named from the path inside the archive. Other members are written
// verbatim.
package fixture

import (
	"archive/zip"
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"

	"github.com/origadmin/classpath/internal/classfile"
)

const archiveSep = "!"

var modifiers = map[string]classfile.AccessFlags{
	"public":    classfile.AccPublic,
	"private":   classfile.AccPrivate,
	"protected": classfile.AccProtected,
	"static":    classfile.AccStatic,
	"final":     classfile.AccFinal,
	"abstract":  classfile.AccAbstract,
	"varargs":   classfile.AccVarArgs,
	"bridge":    classfile.AccBridge,
	"synthetic": classfile.AccSynthetic,
}

// WriteTree parses src as a txtar archive and materializes it below dir.
func WriteTree(dir, src string) error {
	return Materialize(dir, txtar.Parse([]byte(src)))
}

// Materialize writes every member of ar below dir.
func Materialize(dir string, ar *txtar.Archive) error {
	jars := make(map[string][]txtar.File)
	for _, f := range ar.Files {
		if jar, member, ok := strings.Cut(f.Name, archiveSep); ok {
			jars[jar] = append(jars[jar], txtar.File{Name: member, Data: f.Data})
			continue
		}
		data, err := memberBytes(f, nameFromPath(belowRoot(f.Name)))
		if err != nil {
			return err
		}
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}

	jarNames := make([]string, 0, len(jars))
	for name := range jars {
		jarNames = append(jarNames, name)
	}
	sort.Strings(jarNames)
	for _, name := range jarNames {
		if err := writeJar(filepath.Join(dir, filepath.FromSlash(name)), jars[name]); err != nil {
			return fmt.Errorf("fixture: write %s: %w", name, err)
		}
	}
	return nil
}

func writeJar(path string, files []txtar.File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, f := range files {
		data, err := memberBytes(f, nameFromPath(f.Name))
		if err != nil {
			out.Close()
			return err
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			out.Close()
			return err
		}
		if _, err := w.Write(data); err != nil {
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func memberBytes(f txtar.File, class string) ([]byte, error) {
	if !strings.HasSuffix(f.Name, ".class") {
		return f.Data, nil
	}
	decl := strings.TrimSpace(string(f.Data))
	if decl == "" {
		decl = "public class " + class
	}
	b, err := ClassBytes(decl)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", f.Name, err)
	}
	return b, nil
}

func nameFromPath(p string) string {
	return classfile.DottedName(strings.TrimSuffix(strings.TrimPrefix(p, "/"), ".class"))
}

// belowRoot drops the leading classpath root directory of a tree member.
func belowRoot(p string) string {
	if _, rest, ok := strings.Cut(strings.TrimPrefix(p, "/"), "/"); ok {
		return rest
	}
	return p
}

// ClassBytes compiles a declaration to class file bytes.
func ClassBytes(decl string) ([]byte, error) {
	c, err := Compile(decl)
	if err != nil {
		return nil, err
	}
	return classfile.Encode(c), nil
}

// Compile parses a class declaration. Classes without an extends clause
// extend java.lang.Object.
func Compile(decl string) (*classfile.Class, error) {
	sc := bufio.NewScanner(strings.NewReader(decl))
	var c *classfile.Class
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var err error
		if c == nil {
			c, err = parseHeader(strings.Fields(text))
		} else {
			err = parseMember(c, strings.Fields(text))
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if c == nil {
		return nil, fmt.Errorf("empty class declaration")
	}
	return c, nil
}

func parseHeader(tok []string) (*classfile.Class, error) {
	c := &classfile.Class{}
	flags, tok := parseModifiers(tok)
	c.Flags = flags | classfile.AccSynchronized
	if len(tok) < 2 {
		return nil, fmt.Errorf("expected class or interface declaration")
	}
	switch tok[0] {
	case "class":
	case "interface":
		c.Flags = flags | classfile.AccInterface | classfile.AccAbstract
	default:
		return nil, fmt.Errorf("unexpected %q, want class or interface", tok[0])
	}
	c.Name = tok[1]
	if c.Name != classfile.Object.Name {
		c.Super = classfile.Object.Name
	}
	tok = tok[2:]
	for len(tok) > 0 {
		switch tok[0] {
		case "extends":
			if len(tok) < 2 {
				return nil, fmt.Errorf("extends without a type")
			}
			if c.Flags.IsInterface() {
				c.Interfaces = append(c.Interfaces, splitList(tok[1])...)
			} else {
				c.Super = tok[1]
			}
			tok = tok[2:]
		case "implements":
			tok = tok[1:]
			for len(tok) > 0 && tok[0] != "extends" {
				c.Interfaces = append(c.Interfaces, splitList(tok[0])...)
				tok = tok[1:]
			}
		default:
			return nil, fmt.Errorf("unexpected %q in class header", tok[0])
		}
	}
	return c, nil
}

func parseMember(c *classfile.Class, tok []string) error {
	kind := tok[0]
	flags, tok := parseModifiers(tok[1:])
	switch kind {
	case "ctor":
		if len(tok) != 1 {
			return fmt.Errorf("ctor wants a descriptor")
		}
		return addMethod(c, flags, classfile.ConstructorName, tok[0])
	case "method":
		if len(tok) != 2 {
			return fmt.Errorf("method wants a name and a descriptor")
		}
		return addMethod(c, flags, tok[0], tok[1])
	case "field":
		if len(tok) != 2 {
			return fmt.Errorf("field wants a name and a descriptor")
		}
		d, err := classfile.ParseFieldDesc(tok[1])
		if err != nil {
			return err
		}
		c.Fields = append(c.Fields, &classfile.Field{Flags: flags, Name: tok[0], Descriptor: tok[1], Type: d})
		return nil
	}
	return fmt.Errorf("unknown member kind %q", kind)
}

func addMethod(c *classfile.Class, flags classfile.AccessFlags, name, desc string) error {
	params, ret, err := classfile.ParseMethodDesc(desc)
	if err != nil {
		return err
	}
	c.Methods = append(c.Methods, &classfile.Method{
		Flags:      flags,
		Name:       name,
		Descriptor: desc,
		Params:     params,
		Return:     ret,
	})
	return nil
}

func parseModifiers(tok []string) (classfile.AccessFlags, []string) {
	var flags classfile.AccessFlags
	for len(tok) > 0 {
		f, ok := modifiers[tok[0]]
		if !ok {
			break
		}
		flags |= f
		tok = tok[1:]
	}
	return flags, tok
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
