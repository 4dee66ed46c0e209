// Package classfile reads and writes the part of the JVM class file format
// needed to index, load and resolve members of types found on a classpath.
package classfile

import (
	"strings"
)

// Magic is the leading u4 of every class file.
const Magic = 0xCAFEBABE

// AccessFlags mirrors the access_flags items of classes, fields and methods.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccBridge       AccessFlags = 0x0040
	AccVarArgs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccSynthetic    AccessFlags = 0x1000
	AccEnum         AccessFlags = 0x4000
)

func (f AccessFlags) IsPublic() bool    { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool   { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool    { return f&AccStatic != 0 }
func (f AccessFlags) IsInterface() bool { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool  { return f&AccAbstract != 0 }
func (f AccessFlags) IsVarArgs() bool   { return f&AccVarArgs != 0 }
func (f AccessFlags) IsBridge() bool    { return f&AccBridge != 0 }
func (f AccessFlags) IsSynthetic() bool { return f&AccSynthetic != 0 }

// String renders the flags the way they would be written in source.
func (f AccessFlags) String() string {
	var parts []string
	switch {
	case f.IsPublic():
		parts = append(parts, "public")
	case f.IsProtected():
		parts = append(parts, "protected")
	case f.IsPrivate():
		parts = append(parts, "private")
	}
	if f.IsStatic() {
		parts = append(parts, "static")
	}
	if f&AccFinal != 0 {
		parts = append(parts, "final")
	}
	if f.IsAbstract() && !f.IsInterface() {
		parts = append(parts, "abstract")
	}
	return strings.Join(parts, " ")
}

// Class is the parsed form of a class file. Names are dotted
// (java.lang.String), never in the internal slashed form.
type Class struct {
	Minor      uint16
	Major      uint16
	Flags      AccessFlags
	Name       string
	Super      string // empty only for java.lang.Object
	Interfaces []string
	Fields     []*Field
	Methods    []*Method
}

// Field is a declared field.
type Field struct {
	Flags      AccessFlags
	Name       string
	Descriptor string
	Type       Desc
}

// Method is a declared method or constructor (<init>).
type Method struct {
	Flags      AccessFlags
	Name       string
	Descriptor string
	Params     []Desc
	Return     Desc
}

// ConstructorName is the reserved method name of instance initializers.
const ConstructorName = "<init>"

// IsConstructor reports whether m is an instance initializer.
func (m *Method) IsConstructor() bool { return m.Name == ConstructorName }

// Package returns the dotted package of the class, or "" for the unnamed package.
func (c *Class) Package() string {
	pkg, _ := SplitName(c.Name)
	return pkg
}

// SplitName splits a dotted type name into its package and simple name.
func SplitName(name string) (pkg, simple string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// InternalName converts a dotted name to the slashed form used inside class files.
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// DottedName converts a slashed internal name to its dotted form.
func DottedName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
