/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements component A, spec.md §4.1: sequential, big-endian
// parsing of the class-file binary format into the raw structural tree
// (ParsedClass) that define_class (linker.go) turns into a runtime Class.
package classloader

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/brinestone/stackvm/vmerr"
)

const classMagic = 0xCAFEBABE

// RawAttribute is an attribute not specially parsed into its own struct:
// either because the decoder does not recognize it (spec.md §4.1 "preserved
// as opaque") or because it is recognized but only needs to be carried,
// never interpreted (StackMapTable, Exceptions).
type RawAttribute struct {
	Name string
	Info []byte
}

type ExceptionTableEntry struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint16 // CP index of a ClassInfo, or 0 for "any throwable"
}

// CodeAttribute is the parsed Code attribute (spec.md §4.1, §3.8): the
// method's bytecode, its stack/locals sizing, and its exception-handler
// table (spec.md §4.5.10).
type CodeAttribute struct {
	MaxStack       int
	MaxLocals      int
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []RawAttribute
}

type ParsedField struct {
	AccessFlags      uint16
	NameIndex        uint16
	DescriptorIndex  uint16
	Attributes       []RawAttribute
}

type ParsedMethod struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []RawAttribute
	Code            *CodeAttribute // nil for abstract/native methods
}

// ParsedClass is the decoder's structural-tree output: a faithful,
// unlinked transcription of the class-file format, with zero resolution
// performed yet.
type ParsedClass struct {
	MinorVersion uint16
	MajorVersion uint16
	CP           *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16 // 0 means no superclass (only valid for java/lang/Object)
	Interfaces   []uint16
	Fields       []ParsedField
	Methods      []ParsedMethod
	Attributes   []RawAttribute
}

// Decode parses a complete class file per spec.md §4.1.
func Decode(data []byte) (*ParsedClass, error) {
	r := newByteReader(data)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, vmerr.CFE(0, "bad magic number 0x%08X", magic)
	}

	minor, err := r.u2()
	if err != nil {
		return nil, err
	}
	major, err := r.u2()
	if err != nil {
		return nil, err
	}

	cp, err := decodeConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u2()
	if err != nil {
		return nil, err
	}
	thisClass, err := r.u2()
	if err != nil {
		return nil, err
	}
	superClass, err := r.u2()
	if err != nil {
		return nil, err
	}

	interfaces, err := decodeInterfaces(r)
	if err != nil {
		return nil, err
	}

	fields, err := decodeFields(r, cp)
	if err != nil {
		return nil, err
	}

	methods, err := decodeMethods(r, cp)
	if err != nil {
		return nil, err
	}

	attrs, err := decodeAttributes(r, cp)
	if err != nil {
		return nil, err
	}

	return &ParsedClass{
		MinorVersion: minor,
		MajorVersion: major,
		CP:           cp,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   attrs,
	}, nil
}

func decodeConstantPool(r *byteReader) (*ConstantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	cp := &ConstantPool{Entries: make([]CpInfo, count)}
	cp.Entries[0] = &DummyInfo{}

	for i := 1; i < int(count); i++ {
		offset := r.offset()
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		entry, err := decodeCpEntry(r, CpTag(tag), offset)
		if err != nil {
			return nil, err
		}
		cp.Entries[i] = entry
		if tag == CpLong || tag == CpDouble {
			// spec.md §3.5: 64-bit literals occupy two consecutive pool
			// slots; leave a sentinel in the next one and skip it.
			i++
			if i < int(count) {
				cp.Entries[i] = &DummyInfo{}
			}
		}
	}
	return cp, nil
}

func decodeCpEntry(r *byteReader, tag CpTag, offset int) (CpInfo, error) {
	switch tag {
	case CpUTF8:
		return decodeUtf8(r, offset)
	case CpInteger:
		v, err := r.u4()
		if err != nil {
			return nil, err
		}
		return &IntegerInfo{Value: int32(v)}, nil
	case CpFloat:
		v, err := r.u4()
		if err != nil {
			return nil, err
		}
		return &FloatInfo{Value: math.Float32frombits(v)}, nil
	case CpLong:
		hi, err := r.u4()
		if err != nil {
			return nil, err
		}
		lo, err := r.u4()
		if err != nil {
			return nil, err
		}
		return &LongInfo{Value: int64(uint64(hi)<<32 | uint64(lo))}, nil
	case CpDouble:
		hi, err := r.u4()
		if err != nil {
			return nil, err
		}
		lo, err := r.u4()
		if err != nil {
			return nil, err
		}
		return &DoubleInfo{Value: math.Float64frombits(uint64(hi)<<32 | uint64(lo))}, nil
	case CpClass:
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &ClassInfo{NameIndex: idx}, nil
	case CpString:
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &StringInfo{StringIndex: idx}, nil
	case CpFieldref:
		c, nt, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &FieldrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, nil
	case CpMethodref:
		c, nt, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &MethodrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, nil
	case CpInterfaceMethodref:
		c, nt, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &InterfaceMethodrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, nil
	case CpNameAndType:
		name, desc, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &NameAndTypeInfo{NameIndex: name, DescriptorIndex: desc}, nil
	case CpMethodHandle:
		kind, err := r.u1()
		if err != nil {
			return nil, err
		}
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &MethodHandleInfo{RefKind: kind, RefIndex: idx}, nil
	case CpMethodType:
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &MethodTypeInfo{DescriptorIndex: idx}, nil
	case CpDynamic:
		bsm, nt, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &DynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nt}, nil
	case CpInvokeDynamic:
		bsm, nt, err := decodeRefPair(r)
		if err != nil {
			return nil, err
		}
		return &InvokeDynamicInfo{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nt}, nil
	case CpModule:
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &ModuleInfo{NameIndex: idx}, nil
	case CpPackage:
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		return &PackageInfo{NameIndex: idx}, nil
	default:
		return nil, vmerr.CFE(offset, "unknown constant pool tag %d", tag)
	}
}

func decodeRefPair(r *byteReader) (uint16, uint16, error) {
	a, err := r.u2()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.u2()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// decodeUtf8 decodes the class file's "modified UTF-8": two bytes (C0 80)
// for U+0000, and surrogate pairs (each encoded as three bytes) for
// supplementary-plane characters, per spec.md §6.1. It stays close to the
// modified-UTF-8 bit patterns instead of handing the raw bytes to Go's
// strict UTF-8 decoder, which would reject both encodings.
func decodeUtf8(r *byteReader, offset int) (*Utf8Info, error) {
	length, err := r.u2()
	if err != nil {
		return nil, err
	}
	raw, err := r.bytes(int(length))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	i := 0
	for i < len(raw) {
		b0 := raw[i]
		switch {
		case b0&0x80 == 0: // single byte, 0xxxxxxx
			sb.WriteByte(b0)
			i++
		case b0&0xE0 == 0xC0: // two bytes, 110xxxxx 10xxxxxx (covers C0 80 = U+0000)
			if i+1 >= len(raw) {
				return nil, vmerr.CFE(offset, "truncated modified-UTF8 sequence")
			}
			b1 := raw[i+1]
			r0 := rune(b0&0x1F)<<6 | rune(b1&0x3F)
			sb.WriteRune(r0)
			i += 2
		case b0&0xF0 == 0xE0: // three bytes: either a BMP char, or half of a surrogate pair
			if i+2 >= len(raw) {
				return nil, vmerr.CFE(offset, "truncated modified-UTF8 sequence")
			}
			b1, b2 := raw[i+1], raw[i+2]
			r0 := rune(b0&0x0F)<<12 | rune(b1&0x3F)<<6 | rune(b2&0x3F)
			if r0 >= 0xD800 && r0 <= 0xDBFF && i+5 < len(raw) &&
				raw[i+3]&0xF0 == 0xE0 {
				b3, b4, b5 := raw[i+3], raw[i+4], raw[i+5]
				low := rune(b3&0x0F)<<12 | rune(b4&0x3F)<<6 | rune(b5&0x3F)
				if low >= 0xDC00 && low <= 0xDFFF {
					combined := 0x10000 + (r0-0xD800)<<10 + (low - 0xDC00)
					sb.WriteRune(combined)
					i += 6
					continue
				}
			}
			sb.WriteRune(r0)
			i += 3
		default:
			return nil, vmerr.CFE(offset+i, "invalid modified-UTF8 lead byte 0x%02X", b0)
		}
	}
	return &Utf8Info{Value: sb.String()}, nil
}

func decodeInterfaces(r *byteReader) ([]uint16, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		v, err := r.u2()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeFields(r *byteReader, cp *ConstantPool) ([]ParsedField, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]ParsedField, count)
	for i := range out {
		accessFlags, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := r.u2()
		if err != nil {
			return nil, err
		}
		desc, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		out[i] = ParsedField{AccessFlags: accessFlags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs}
	}
	return out, nil
}

func decodeMethods(r *byteReader, cp *ConstantPool) ([]ParsedMethod, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]ParsedMethod, count)
	for i := range out {
		accessFlags, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := r.u2()
		if err != nil {
			return nil, err
		}
		desc, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		pm := ParsedMethod{AccessFlags: accessFlags, NameIndex: name, DescriptorIndex: desc, Attributes: attrs}
		for _, a := range attrs {
			if a.Name == "Code" {
				code, err := decodeCodeAttribute(a.Info, cp)
				if err != nil {
					return nil, err
				}
				pm.Code = code
			}
		}
		out[i] = pm
	}
	return out, nil
}

var recognizedAttributes = map[string]bool{
	"Code": true, "ConstantValue": true, "LineNumberTable": true,
	"LocalVariableTable": true, "Signature": true, "Deprecated": true,
	"SourceFile": true, "StackMapTable": true, "Exceptions": true,
	"RuntimeVisibleAnnotations": true, "Module": true, "ModulePackages": true,
	"ModuleTarget": true, "InnerClasses": true,
}

func decodeAttributes(r *byteReader, cp *ConstantPool) ([]RawAttribute, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]RawAttribute, count)
	for i := range out {
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		info, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		name := cp.Utf8(nameIdx)
		// spec.md §4.1: attributes are parsed by name where recognized,
		// unrecognized attributes are preserved as opaque. Either way the
		// raw bytes are retained here; Code gets additionally parsed by
		// decodeMethods into a CodeAttribute.
		out[i] = RawAttribute{Name: name, Info: append([]byte(nil), info...)}
		_ = recognizedAttributes[name] // documents the recognized-name allowlist; both branches keep Info
	}
	return out, nil
}

func decodeCodeAttribute(info []byte, cp *ConstantPool) (*CodeAttribute, error) {
	r := newByteReader(info)
	maxStack, err := r.u2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}

	excCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	excTable := make([]ExceptionTableEntry, excCount)
	for i := range excTable {
		start, err := r.u2()
		if err != nil {
			return nil, err
		}
		end, err := r.u2()
		if err != nil {
			return nil, err
		}
		handler, err := r.u2()
		if err != nil {
			return nil, err
		}
		catch, err := r.u2()
		if err != nil {
			return nil, err
		}
		excTable[i] = ExceptionTableEntry{StartPC: int(start), EndPC: int(end), HandlerPC: int(handler), CatchType: catch}
	}

	attrs, err := decodeAttributes(r, cp)
	if err != nil {
		return nil, err
	}

	return &CodeAttribute{
		MaxStack:       int(maxStack),
		MaxLocals:      int(maxLocals),
		Code:           append([]byte(nil), code...),
		ExceptionTable: excTable,
		Attributes:     attrs,
	}, nil
}

// packU16 and packU32 are used by the class-file synthesis helpers in
// tests to avoid depending on encoding/binary sprinkled throughout the
// test file itself.
func packU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func packU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
