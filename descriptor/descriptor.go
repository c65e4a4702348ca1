/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package descriptor implements component B: the field- and
// method-descriptor grammars of spec.md §4.2, parsed into a small tagged
// FieldType tree rather than left as raw strings, so that classloader's
// field-layout and vtable code and jvm's invocation code never re-parse a
// descriptor string by hand.
package descriptor

import (
	"strings"

	"github.com/brinestone/stackvm/types"
	"github.com/brinestone/stackvm/vmerr"
)

// Kind enumerates the field-descriptor tags.
type Kind byte

const (
	KindByte Kind = iota
	KindChar
	KindDouble
	KindFloat
	KindInt
	KindLong
	KindShort
	KindBoolean
	KindVoid
	KindReference
	KindArray
)

// FieldType is the parsed form of a single field descriptor. For
// KindReference, ClassName holds the binary class name (no leading 'L' or
// trailing ';'). For KindArray, Element holds the parsed element
// descriptor and Dimensions the number of leading '[' seen.
type FieldType struct {
	Kind       Kind
	ClassName  string
	Element    *FieldType
	Dimensions int
}

// Letter returns the single-character (or "[") descriptor code for t's
// kind, matching the letters spec.md §4.2 enumerates.
func (t *FieldType) Letter() string {
	switch t.Kind {
	case KindByte:
		return types.Byte
	case KindChar:
		return types.Char
	case KindDouble:
		return types.Double
	case KindFloat:
		return types.Float
	case KindInt:
		return types.Int
	case KindLong:
		return types.Long
	case KindShort:
		return types.Short
	case KindBoolean:
		return types.Boolean
	case KindVoid:
		return types.Void
	case KindReference:
		return types.Ref
	case KindArray:
		return types.Array
	default:
		return ""
	}
}

// String renders t back into its class-file descriptor spelling, e.g.
// "[Ljava/lang/String;" or "I".
func (t *FieldType) String() string {
	switch t.Kind {
	case KindReference:
		return "L" + t.ClassName + ";"
	case KindArray:
		return "[" + t.Element.String()
	default:
		return t.Letter()
	}
}

// IsPrimitive reports whether t is a primitive (non-reference, non-array)
// type.
func (t *FieldType) IsPrimitive() bool {
	return t.Kind != KindReference && t.Kind != KindArray
}

// ElementByteSize is the "slot-size accessor" of spec.md §4.2: the number
// of bytes one array element of this primitive kind occupies in the heap's
// byte-buffer payload (spec.md §4.3). References always occupy 4 bytes (a
// 32-bit object identifier), matching the width of every other stack slot.
func (t *FieldType) ElementByteSize() int {
	switch t.Kind {
	case KindLong, KindDouble:
		return 8
	case KindChar, KindShort:
		return 2
	case KindByte, KindBoolean:
		return 1
	default:
		return 4
	}
}

var primitiveKinds = map[byte]Kind{
	'B': KindByte,
	'C': KindChar,
	'D': KindDouble,
	'F': KindFloat,
	'I': KindInt,
	'J': KindLong,
	'S': KindShort,
	'Z': KindBoolean,
}

// ParseFieldDescriptor parses a single field descriptor starting at s[0],
// returning the parsed type and the number of bytes consumed. offset is
// used only to annotate a ClassFormatError with a useful byte position.
func ParseFieldDescriptor(s string, offset int) (*FieldType, int, error) {
	if s == "" {
		return nil, 0, vmerr.CFE(offset, "empty field descriptor")
	}
	switch s[0] {
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return nil, 0, vmerr.CFE(offset, "unterminated reference descriptor %q", s)
		}
		return &FieldType{Kind: KindReference, ClassName: s[1:end]}, end + 1, nil
	case '[':
		elem, n, err := ParseFieldDescriptor(s[1:], offset+1)
		if err != nil {
			return nil, 0, err
		}
		dims := 1
		if elem.Kind == KindArray {
			dims += elem.Dimensions
		}
		return &FieldType{Kind: KindArray, Element: elem, Dimensions: dims}, n + 1, nil
	default:
		if kind, ok := primitiveKinds[s[0]]; ok {
			return &FieldType{Kind: kind}, 1, nil
		}
		return nil, 0, vmerr.CFE(offset, "invalid field descriptor character %q", s[0])
	}
}

// MethodType is the parsed form of a method descriptor: an ordered
// parameter list and a return type (KindVoid for a void return).
type MethodType struct {
	Parameters []*FieldType
	ReturnType *FieldType
	Raw        string
}

// ParseMethodDescriptor parses "(<field-descriptor>*)(V|<field-descriptor>)"
// per spec.md §4.2.
func ParseMethodDescriptor(s string) (*MethodType, error) {
	if len(s) < 2 || s[0] != '(' {
		return nil, vmerr.CFE(0, "method descriptor %q must start with '('", s)
	}
	i := 1
	var params []*FieldType
	for i < len(s) && s[i] != ')' {
		ft, n, err := ParseFieldDescriptor(s[i:], i)
		if err != nil {
			return nil, err
		}
		if ft.Kind == KindVoid {
			return nil, vmerr.CFE(i, "void is not a valid parameter type")
		}
		params = append(params, ft)
		i += n
	}
	if i >= len(s) {
		return nil, vmerr.CFE(i, "method descriptor %q missing closing ')'", s)
	}
	i++ // skip ')'
	if i >= len(s) {
		return nil, vmerr.CFE(i, "method descriptor %q missing return type", s)
	}
	if s[i] == 'V' {
		return &MethodType{Parameters: params, ReturnType: &FieldType{Kind: KindVoid}, Raw: s}, nil
	}
	ret, n, err := ParseFieldDescriptor(s[i:], i)
	if err != nil {
		return nil, err
	}
	if i+n != len(s) {
		return nil, vmerr.CFE(i+n, "trailing data after method descriptor %q", s)
	}
	return &MethodType{Parameters: params, ReturnType: ret, Raw: s}, nil
}

// ParameterSlotCount sums each parameter's operand-stack width (2 for
// long/double, 1 otherwise) — the count new_frame (spec.md §4.5.1) moves
// from the caller's stack into the callee's locals, before adding 1 for a
// non-static `this`.
func (m *MethodType) ParameterSlotCount() int {
	n := 0
	for _, p := range m.Parameters {
		n += types.SlotSize(p.Letter())
	}
	return n
}
