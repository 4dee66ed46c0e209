package classfile

import (
	"bytes"
	"encoding/binary"
)

// DefaultMajor is the class file version written by Encode (Java 8).
const DefaultMajor = 52

// Encode writes c as a class file. Only Utf8 and Class constants are emitted
// and no attributes are written, which is enough for classpath mapping and
// member resolution.
func Encode(c *Class) []byte {
	w := &poolWriter{utf8s: map[string]uint16{}, classes: map[string]uint16{}}
	this := w.class(c.Name)
	var super uint16
	if c.Super != "" {
		super = w.class(c.Super)
	}
	ifaces := make([]uint16, len(c.Interfaces))
	for i, name := range c.Interfaces {
		ifaces[i] = w.class(name)
	}
	type member struct{ flags, name, desc uint16 }
	fields := make([]member, len(c.Fields))
	for i, f := range c.Fields {
		desc := f.Descriptor
		if desc == "" {
			desc = f.Type.Descriptor()
		}
		fields[i] = member{uint16(f.Flags), w.utf8(f.Name), w.utf8(desc)}
	}
	methods := make([]member, len(c.Methods))
	for i, m := range c.Methods {
		desc := m.Descriptor
		if desc == "" {
			desc = MethodDescriptor(m.Params, m.Return)
		}
		methods[i] = member{uint16(m.Flags), w.utf8(m.Name), w.utf8(desc)}
	}

	major := c.Major
	if major == 0 {
		major = DefaultMajor
	}
	var out bytes.Buffer
	put := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }
	put(uint32(Magic))
	put(c.Minor)
	put(major)
	put(uint16(len(w.entries) + 1))
	out.Write(w.buf.Bytes())
	put(uint16(c.Flags))
	put(this)
	put(super)
	put(uint16(len(ifaces)))
	for _, i := range ifaces {
		put(i)
	}
	for _, group := range [][]member{fields, methods} {
		put(uint16(len(group)))
		for _, m := range group {
			put(m.flags)
			put(m.name)
			put(m.desc)
			put(uint16(0))
		}
	}
	put(uint16(0))
	return out.Bytes()
}

type poolWriter struct {
	buf     bytes.Buffer
	entries []byte
	utf8s   map[string]uint16
	classes map[string]uint16
}

func (w *poolWriter) next(tag byte) uint16 {
	w.entries = append(w.entries, tag)
	w.buf.WriteByte(tag)
	return uint16(len(w.entries))
}

func (w *poolWriter) utf8(s string) uint16 {
	if idx, ok := w.utf8s[s]; ok {
		return idx
	}
	idx := w.next(tagUtf8)
	_ = binary.Write(&w.buf, binary.BigEndian, uint16(len(s)))
	w.buf.WriteString(s)
	w.utf8s[s] = idx
	return idx
}

func (w *poolWriter) class(name string) uint16 {
	if idx, ok := w.classes[name]; ok {
		return idx
	}
	nameIdx := w.utf8(InternalName(name))
	idx := w.next(tagClass)
	_ = binary.Write(&w.buf, binary.BigEndian, nameIdx)
	w.classes[name] = idx
	return idx
}
