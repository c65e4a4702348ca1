/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/Float and java/lang/Double's bit-pattern
// natives, SPEC_FULL.md §4.7.1: floatToRawIntBits/intBitsToFloat,
// doubleToRawLongBits/longBitsToDouble — the reinterpret-cast operations
// spec.md §8's round-trip property exercises. Not grounded on a teacher
// file (the example pack's gfunction slice has no Float/Double natives);
// written directly against math.Float32bits's documented IEEE-754 bit
// layout.
package gfunction

import "math"

func loadLangFloatDouble() {
	MethodSignatures["java/lang/Float.floatToRawIntBits(F)I"] = GMeth{ParamSlots: 1, GFunction: floatToRawIntBits}
	MethodSignatures["java/lang/Float.intBitsToFloat(I)F"] = GMeth{ParamSlots: 1, GFunction: intBitsToFloat}
	MethodSignatures["java/lang/Double.doubleToRawLongBits(D)J"] = GMeth{ParamSlots: 2, GFunction: doubleToRawLongBits}
	MethodSignatures["java/lang/Double.longBitsToDouble(J)D"] = GMeth{ParamSlots: 2, GFunction: longBitsToDouble}
}

func floatToRawIntBits(params []interface{}) interface{} {
	return int64(int32(math.Float32bits(float32(params[0].(float64)))))
}

func intBitsToFloat(params []interface{}) interface{} {
	return float64(math.Float32frombits(uint32(params[0].(int64))))
}

func doubleToRawLongBits(params []interface{}) interface{} {
	return int64(math.Float64bits(params[0].(float64)))
}

func longBitsToDouble(params []interface{}) interface{} {
	return math.Float64frombits(uint64(params[0].(int64)))
}
