/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements the java/lang/String natives SPEC_FULL.md §4.7.1
// enumerates: intern, hashCode, equals, length, charAt, concat, indexOf,
// the valueOf family, toCharArray, and the coder/isLatin1 UTF-16-vs-Latin1
// byte. Grounded on the teacher's javaLangString.go for which operations
// matter, but rewritten from scratch against this port's compact-string
// representation (object.GoStringFromStringObject/
// CreateCompactStringFromGoString) rather than jacobin's own String
// object shape — this port's compact strings are always Latin1-backed
// ([]byte, see object/string.go), so isLatin1/coder here always report
// Latin1 rather than discerning per-instance as real compact strings do.
package gfunction

import (
	"strconv"
	"strings"

	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/types"
)

func loadLangString() {
	MethodSignatures["java/lang/String.<clinit>()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["java/lang/String.intern()Ljava/lang/String;"] = GMeth{GFunction: stringIntern}
	MethodSignatures["java/lang/String.hashCode()I"] = GMeth{GFunction: stringHashCode}
	MethodSignatures["java/lang/String.equals(Ljava/lang/Object;)Z"] = GMeth{ParamSlots: 1, GFunction: stringEquals}
	MethodSignatures["java/lang/String.length()I"] = GMeth{GFunction: stringLength}
	MethodSignatures["java/lang/String.charAt(I)C"] = GMeth{ParamSlots: 1, GFunction: stringCharAt}
	MethodSignatures["java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: stringConcat}
	MethodSignatures["java/lang/String.indexOf(Ljava/lang/String;)I"] = GMeth{ParamSlots: 1, GFunction: stringIndexOf}
	MethodSignatures["java/lang/String.toCharArray()[C"] = GMeth{GFunction: stringToCharArray}
	MethodSignatures["java/lang/String.coder()B"] = GMeth{GFunction: stringCoder}
	MethodSignatures["java/lang/String.isLatin1()Z"] = GMeth{GFunction: stringIsLatin1}

	MethodSignatures["java/lang/String.valueOf(I)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: valueOfInt}
	MethodSignatures["java/lang/String.valueOf(J)Ljava/lang/String;"] = GMeth{ParamSlots: 2, GFunction: valueOfLong}
	MethodSignatures["java/lang/String.valueOf(Z)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: valueOfBoolean}
	MethodSignatures["java/lang/String.valueOf(C)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: valueOfChar}
	MethodSignatures["java/lang/String.valueOf(D)Ljava/lang/String;"] = GMeth{ParamSlots: 2, GFunction: valueOfDouble}
	MethodSignatures["java/lang/String.valueOf(Ljava/lang/Object;)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: valueOfObject}
}

func receiverString(params []interface{}) (string, bool) {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok || obj.ClassName() != types.StringClassName {
		return "", false
	}
	return object.GoStringFromStringObject(obj), true
}

func stringIntern(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return vmHeap.InternString(s)
}

// stringHashCode implements the documented s[0]*31^(n-1) + ... + s[n-1]
// algorithm java/lang/String.hashCode is specified to use.
func stringHashCode(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	return int64(h)
}

func stringEquals(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	otherID, _ := params[1].(uint32)
	other, ok := vmHeap.Get(otherID)
	if !ok || other.ClassName() != types.StringClassName {
		return int64(0)
	}
	if object.GoStringFromStringObject(other) == s {
		return int64(1)
	}
	return int64(0)
}

func stringLength(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return int64(len(s))
}

func stringCharAt(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	idx := params[1].(int64)
	if idx < 0 || int(idx) >= len(s) {
		return getGErrBlk("java/lang/StringIndexOutOfBoundsException", "index %d, length %d", idx, len(s))
	}
	return int64(s[idx])
}

func stringConcat(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	other, ok := vmHeap.Get(params[1].(uint32))
	if !ok || other.ClassName() != types.StringClassName {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return vmHeap.InternString(s + object.GoStringFromStringObject(other))
}

func stringIndexOf(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	other, ok := vmHeap.Get(params[1].(uint32))
	if !ok || other.ClassName() != types.StringClassName {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return int64(strings.Index(s, object.GoStringFromStringObject(other)))
}

func stringToCharArray(params []interface{}) interface{} {
	s, ok := receiverString(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	arr := object.NewArray("[C", types.Char, len(s), int64(0))
	for i, c := range []byte(s) {
		arr.PutArrayElement(i, int64(c))
	}
	return vmHeap.Allocate(arr)
}

// stringCoder/stringIsLatin1 always report the Latin1 byte, since this
// port's compact strings (object/string.go) never build a UTF-16 payload.
func stringCoder([]interface{}) interface{}    { return int64(0) }
func stringIsLatin1([]interface{}) interface{} { return int64(1) }

func valueOfInt(params []interface{}) interface{} {
	return vmHeap.InternString(strconv.FormatInt(params[0].(int64), 10))
}

func valueOfLong(params []interface{}) interface{} {
	return vmHeap.InternString(strconv.FormatInt(params[0].(int64), 10))
}

func valueOfBoolean(params []interface{}) interface{} {
	if params[0].(int64) != 0 {
		return vmHeap.InternString("true")
	}
	return vmHeap.InternString("false")
}

func valueOfChar(params []interface{}) interface{} {
	return vmHeap.InternString(string(rune(params[0].(int64))))
}

func valueOfDouble(params []interface{}) interface{} {
	return vmHeap.InternString(strconv.FormatFloat(params[0].(float64), 'g', -1, 64))
}

func valueOfObject(params []interface{}) interface{} {
	id, _ := params[0].(uint32)
	if id == 0 {
		return vmHeap.InternString("null")
	}
	obj, ok := vmHeap.Get(id)
	if !ok {
		return vmHeap.InternString("null")
	}
	if obj.ClassName() == types.StringClassName {
		return id
	}
	return vmHeap.InternString(obj.ToString())
}
