/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the small value and descriptor vocabulary shared by
// every other package: the Java primitive type letters, default field
// values, and the handful of aliases that keep slot-oriented code readable.
package types

// JavaByte is a Java byte: signed 8-bit, but stored as a rune-sized value so
// that string/byte-array conversions in the class library (java/lang/String
// is backed by a byte[] under compact strings) don't have to juggle sign
// extension at every call site.
type JavaByte int32

// Field/method descriptor type letters, per the JVM class-file format.
const (
	Byte      = "B"
	Char      = "C"
	Double    = "D"
	Float     = "F"
	Int       = "I"
	Long      = "J"
	Short     = "S"
	Boolean   = "Z"
	Void      = "V"
	Ref       = "L" // followed by binary-name;
	Array     = "["
	ByteArray = "[B"
	CharArray = "[C"
	RefArray  = "[L"
)

// StringClassName and StringPoolStringIndex identify the well-known
// java/lang/String class; javaByteArray.go's JavaByteArrayFromStringObject
// checks an object's class name against this before reading its "value"
// byte array.
const (
	StringClassName       = "java/lang/String"
	StringPoolStringIndex = StringClassName
)

// IsFloatingPoint reports whether the single-character field-descriptor
// letter denotes a float or double slot.
func IsFloatingPoint(fieldType string) bool {
	return fieldType == Float || fieldType == Double
}

// IsIntegral reports whether the descriptor letter denotes an integral
// 32-bit-or-narrower slot (byte/char/short/int/boolean).
func IsIntegral(fieldType string) bool {
	switch fieldType {
	case Byte, Char, Short, Int, Boolean:
		return true
	default:
		return false
	}
}

// IsCategory2 reports whether a field/local of this descriptor occupies two
// consecutive 32-bit slots (long or double).
func IsCategory2(fieldType string) bool {
	return fieldType == Long || fieldType == Double
}

// IsReference reports whether the descriptor denotes an object or array
// reference (as opposed to a primitive).
func IsReference(fieldType string) bool {
	if fieldType == "" {
		return false
	}
	return fieldType[0] == 'L' || fieldType[0] == '['
}

// DefaultValue returns the JVM-mandated zero value for a field of the given
// descriptor: numeric zero for primitives, nil for references.
func DefaultValue(fieldType string) interface{} {
	if fieldType == "" {
		return nil
	}
	switch fieldType[0] {
	case 'L', '[':
		return nil
	case 'D', 'F':
		return 0.0
	default:
		return int64(0)
	}
}

// SlotSize returns the number of 32-bit value slots a value of the given
// field descriptor occupies: 2 for long/double, 1 for everything else
// (including references, which are always single-slot handles).
func SlotSize(fieldType string) int {
	if IsCategory2(fieldType) {
		return 2
	}
	return 1
}
