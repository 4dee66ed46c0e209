package classfile

import (
	"fmt"
	"strings"
)

// Desc is a Java type as seen by member resolution: a class, interface or
// primitive name plus an array dimension count. The zero value is the null
// type, which is assignable to every reference type.
type Desc struct {
	Name string
	Dims int
}

// Primitive type names.
const (
	Boolean = "boolean"
	Byte    = "byte"
	Char    = "char"
	Short   = "short"
	Int     = "int"
	Long    = "long"
	Float   = "float"
	Double  = "double"
	Void    = "void"
)

var primitiveCodes = map[byte]string{
	'Z': Boolean,
	'B': Byte,
	'C': Char,
	'S': Short,
	'I': Int,
	'J': Long,
	'F': Float,
	'D': Double,
	'V': Void,
}

var primitiveNames = map[string]byte{
	Boolean: 'Z',
	Byte:    'B',
	Char:    'C',
	Short:   'S',
	Int:     'I',
	Long:    'J',
	Float:   'F',
	Double:  'D',
	Void:    'V',
}

// Null is the type of the null literal.
var Null = Desc{}

// Object is java.lang.Object.
var Object = Desc{Name: "java.lang.Object"}

// TypeOf parses a source-style type such as "java.lang.String[]" or "int".
// The literal "null" yields Null.
func TypeOf(s string) Desc {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return Null
	}
	d := Desc{}
	for strings.HasSuffix(s, "[]") {
		d.Dims++
		s = strings.TrimSuffix(s, "[]")
	}
	if strings.HasSuffix(s, "...") {
		d.Dims++
		s = strings.TrimSuffix(s, "...")
	}
	d.Name = s
	return d
}

// IsNull reports whether d is the null type.
func (d Desc) IsNull() bool { return d.Name == "" }

// IsPrimitive reports whether d is a non-array primitive (including void).
func (d Desc) IsPrimitive() bool {
	if d.Dims != 0 {
		return false
	}
	_, ok := primitiveNames[d.Name]
	return ok
}

// IsReference reports whether values of d are references (null included).
func (d Desc) IsReference() bool { return !d.IsPrimitive() }

// IsArray reports whether d has at least one array dimension.
func (d Desc) IsArray() bool { return d.Dims > 0 }

// Elem returns the component type of an array type.
func (d Desc) Elem() Desc {
	if d.Dims == 0 {
		return d
	}
	return Desc{Name: d.Name, Dims: d.Dims - 1}
}

// ArrayOf returns the array type with d as its component.
func (d Desc) ArrayOf() Desc { return Desc{Name: d.Name, Dims: d.Dims + 1} }

func (d Desc) String() string {
	if d.IsNull() {
		return "null"
	}
	return d.Name + strings.Repeat("[]", d.Dims)
}

// Descriptor renders d as a JVM field descriptor.
func (d Desc) Descriptor() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("[", d.Dims))
	if c, ok := primitiveNames[d.Name]; ok {
		b.WriteByte(c)
	} else {
		b.WriteByte('L')
		b.WriteString(InternalName(d.Name))
		b.WriteByte(';')
	}
	return b.String()
}

// ParseFieldDesc parses a single field descriptor such as "[Ljava/lang/String;".
func ParseFieldDesc(s string) (Desc, error) {
	d, n, err := parseDesc(s, 0)
	if err != nil {
		return Desc{}, err
	}
	if n != len(s) {
		return Desc{}, fmt.Errorf("trailing data in field descriptor %q", s)
	}
	return d, nil
}

// ParseMethodDesc parses "(params)return".
func ParseMethodDesc(s string) (params []Desc, ret Desc, err error) {
	if len(s) == 0 || s[0] != '(' {
		return nil, Desc{}, fmt.Errorf("method descriptor %q does not start with '('", s)
	}
	i := 1
	for i < len(s) && s[i] != ')' {
		d, n, err := parseDesc(s, i)
		if err != nil {
			return nil, Desc{}, err
		}
		if d.Name == Void {
			return nil, Desc{}, fmt.Errorf("void parameter in method descriptor %q", s)
		}
		params = append(params, d)
		i = n
	}
	if i >= len(s) {
		return nil, Desc{}, fmt.Errorf("unterminated method descriptor %q", s)
	}
	ret, n, err := parseDesc(s, i+1)
	if err != nil {
		return nil, Desc{}, err
	}
	if n != len(s) {
		return nil, Desc{}, fmt.Errorf("trailing data in method descriptor %q", s)
	}
	return params, ret, nil
}

// MethodDescriptor renders params and ret as a JVM method descriptor.
func MethodDescriptor(params []Desc, ret Desc) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(ret.Descriptor())
	return b.String()
}

func parseDesc(s string, i int) (Desc, int, error) {
	d := Desc{}
	for i < len(s) && s[i] == '[' {
		d.Dims++
		i++
	}
	if i >= len(s) {
		return Desc{}, i, fmt.Errorf("truncated descriptor %q", s)
	}
	if s[i] == 'L' {
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return Desc{}, i, fmt.Errorf("unterminated class descriptor in %q", s)
		}
		d.Name = DottedName(s[i+1 : i+end])
		return d, i + end + 1, nil
	}
	name, ok := primitiveCodes[s[i]]
	if !ok {
		return Desc{}, i, fmt.Errorf("bad descriptor character %q in %q", s[i], s)
	}
	if name == Void && d.Dims > 0 {
		return Desc{}, i, fmt.Errorf("array of void in %q", s)
	}
	d.Name = name
	return d, i + 1, nil
}
