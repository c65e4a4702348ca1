/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "github.com/brinestone/stackvm/types"

// NewStringObject allocates a bare java/lang/String instance with an empty
// backing byte array and a Latin1 coder, ready for one of the gfunction
// String constructors to fill in. Compact strings (JEP 254) store their
// bytes as a Latin1-encoded []byte when every character fits in one byte,
// and as UTF-16 otherwise; coder records which.
func NewStringObject() *Object {
	className := types.StringClassName
	obj := &Object{
		Klass:      &className,
		FieldTable: make(map[string]*Field, 2),
		monitor:    NewMonitor(),
	}
	obj.PutFieldByName("value", Field{Ftype: types.ByteArray, Fvalue: make([]types.JavaByte, 0)})
	obj.PutFieldByName("coder", Field{Ftype: types.Byte, Fvalue: int64(0)}) // 0 = LATIN1, 1 = UTF16
	return obj
}

// UpdateStringObjectFromBytes replaces a String object's backing bytes
// in-place with a fresh Latin1 compact-string payload, used by the
// java/lang/String constructors that build a string from a byte[].
func UpdateStringObjectFromBytes(obj *Object, raw []byte) {
	obj.PutFieldByName("value", Field{Ftype: types.ByteArray, Fvalue: JavaByteArrayFromGoByteArray(raw)})
	obj.PutFieldByName("coder", Field{Ftype: types.Byte, Fvalue: int64(0)})
}

// CreateCompactStringFromGoString is the common entry point for turning a
// host Go string literal (an LDC constant, or a native's return value)
// into a guest String object, used by heap.InternString, through which ldc
// string constants and gfunction natives that return strings get theirs.
func CreateCompactStringFromGoString(s *string) *Object {
	obj := NewStringObject()
	UpdateStringObjectFromBytes(obj, []byte(*s))
	return obj
}

// GoStringFromStringObject is the inverse of CreateCompactStringFromGoString.
func GoStringFromStringObject(obj *Object) string {
	return GoStringFromJavaByteArray(JavaByteArrayFromStringObject(obj))
}
