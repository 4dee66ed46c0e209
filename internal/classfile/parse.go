package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ErrTruncated is returned when the input ends inside a structure.
var ErrTruncated = errors.New("classfile: truncated input")

type cpEntry struct {
	tag  byte
	utf8 string
	ref  uint16
}

type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.b) {
		r.err = ErrTruncated
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *reader) u1() byte {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *reader) u2() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint16(p)
}

func (r *reader) u4() uint32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint32(p)
}

// Parse reads a whole class file from rd.
func Parse(rd io.Reader) (*Class, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("classfile: read: %w", err)
	}
	return ParseBytes(b)
}

// ParseBytes decodes a class file. Attributes are skipped.
func ParseBytes(b []byte) (*Class, error) {
	r := &reader{b: b}
	if m := r.u4(); r.err == nil && m != Magic {
		return nil, fmt.Errorf("classfile: bad magic 0x%08X", m)
	}
	c := &Class{}
	c.Minor = r.u2()
	c.Major = r.u2()
	pool, err := readPool(r)
	if err != nil {
		return nil, err
	}
	c.Flags = AccessFlags(r.u2())
	if c.Name, err = pool.className(r.u2()); err != nil {
		return nil, err
	}
	if super := r.u2(); super != 0 {
		if c.Super, err = pool.className(super); err != nil {
			return nil, err
		}
	}
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		name, err := pool.className(r.u2())
		if err != nil {
			return nil, err
		}
		c.Interfaces = append(c.Interfaces, name)
	}
	n = int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		f := &Field{Flags: AccessFlags(r.u2())}
		if f.Name, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		if f.Descriptor, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		skipAttributes(r)
		if r.err != nil {
			break
		}
		if f.Type, err = ParseFieldDesc(f.Descriptor); err != nil {
			return nil, fmt.Errorf("classfile: field %s.%s: %w", c.Name, f.Name, err)
		}
		c.Fields = append(c.Fields, f)
	}
	n = int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		m := &Method{Flags: AccessFlags(r.u2())}
		if m.Name, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		if m.Descriptor, err = pool.utf8(r.u2()); err != nil {
			return nil, err
		}
		skipAttributes(r)
		if r.err != nil {
			break
		}
		if m.Params, m.Return, err = ParseMethodDesc(m.Descriptor); err != nil {
			return nil, fmt.Errorf("classfile: method %s.%s: %w", c.Name, m.Name, err)
		}
		c.Methods = append(c.Methods, m)
	}
	skipAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

type constantPool []cpEntry

func readPool(r *reader) (constantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	pool := make(constantPool, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.utf8 = string(r.take(n))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.ref = r.u2()
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.take(4)
		case tagLong, tagDouble:
			r.take(8)
			pool[i] = e
			i++ // eight-byte constants take two slots
			continue
		case tagMethodHandle:
			r.take(3)
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("classfile: unknown constant pool tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		pool[i] = e
	}
	return pool, r.err
}

func (p constantPool) utf8(idx uint16) (string, error) {
	if int(idx) <= 0 || int(idx) >= len(p) || p[idx].tag != tagUtf8 {
		return "", fmt.Errorf("classfile: constant %d is not a Utf8 entry", idx)
	}
	return p[idx].utf8, nil
}

func (p constantPool) className(idx uint16) (string, error) {
	if int(idx) <= 0 || int(idx) >= len(p) || p[idx].tag != tagClass {
		return "", fmt.Errorf("classfile: constant %d is not a Class entry", idx)
	}
	s, err := p.utf8(p[idx].ref)
	if err != nil {
		return "", err
	}
	return DottedName(s), nil
}

func skipAttributes(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		r.u2()
		r.take(int(r.u4()))
	}
}
