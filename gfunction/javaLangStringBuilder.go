/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/StringBuilder (and StringBuffer, which
// shares the same natives) per SPEC_FULL.md §4.7.1: the append family and
// toString. Grounded on the teacher's javaLangStringBuilder.go for
// isLatin1, expanded with the append/toString surface a real program
// needs. A builder's accumulated content is kept in a "value" field
// holding a reference to an interned java/lang/String — re-interning on
// every append is wasteful compared to a real mutable char buffer, but it
// reuses the String natives' own content-addressed storage instead of
// inventing a second string representation just for this type.
package gfunction

import (
	"strconv"

	"github.com/brinestone/stackvm/object"
)

func loadLangStringBuilder() {
	for _, cls := range []string{"java/lang/StringBuilder", "java/lang/StringBuffer"} {
		MethodSignatures[cls+".<init>()V"] = GMeth{GFunction: sbInit}
		MethodSignatures[cls+".<init>(Ljava/lang/String;)V"] = GMeth{ParamSlots: 1, GFunction: sbInitFromString}
		MethodSignatures[cls+".append(Ljava/lang/String;)L"+cls+";"] = GMeth{ParamSlots: 1, GFunction: sbAppendString}
		MethodSignatures[cls+".append(I)L"+cls+";"] = GMeth{ParamSlots: 1, GFunction: sbAppendInt}
		MethodSignatures[cls+".append(J)L"+cls+";"] = GMeth{ParamSlots: 2, GFunction: sbAppendLong}
		MethodSignatures[cls+".append(Z)L"+cls+";"] = GMeth{ParamSlots: 1, GFunction: sbAppendBoolean}
		MethodSignatures[cls+".append(C)L"+cls+";"] = GMeth{ParamSlots: 1, GFunction: sbAppendChar}
		MethodSignatures[cls+".append(D)L"+cls+";"] = GMeth{ParamSlots: 2, GFunction: sbAppendDouble}
		MethodSignatures[cls+".toString()Ljava/lang/String;"] = GMeth{GFunction: sbToString}
		MethodSignatures[cls+".isLatin1()Z"] = GMeth{GFunction: sbIsLatin1}
	}
}

func sbValue(params []interface{}) string {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return ""
	}
	f, ok := obj.GetFieldByName("value")
	if !ok {
		return ""
	}
	ref, _ := f.Fvalue.(uint32)
	if ref == 0 {
		return ""
	}
	s, ok := vmHeap.Get(ref)
	if !ok {
		return ""
	}
	return object.GoStringFromStringObject(s)
}

func sbSetValue(params []interface{}, s string) {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return
	}
	obj.PutFieldByName("value", object.Field{Ftype: "Ljava/lang/String;", Fvalue: vmHeap.InternString(s)})
}

func sbInit(params []interface{}) interface{} {
	sbSetValue(params, "")
	return nil
}

func sbInitFromString(params []interface{}) interface{} {
	other, ok := vmHeap.Get(params[1].(uint32))
	if !ok {
		sbSetValue(params, "")
		return nil
	}
	sbSetValue(params, object.GoStringFromStringObject(other))
	return nil
}

func sbAppend(params []interface{}, suffix string) interface{} {
	sbSetValue(params, sbValue(params)+suffix)
	return params[0]
}

func sbAppendString(params []interface{}) interface{} {
	other, ok := vmHeap.Get(params[1].(uint32))
	if !ok {
		return sbAppend(params, "null")
	}
	return sbAppend(params, object.GoStringFromStringObject(other))
}

func sbAppendInt(params []interface{}) interface{} {
	return sbAppend(params, strconv.FormatInt(params[1].(int64), 10))
}

func sbAppendLong(params []interface{}) interface{} {
	return sbAppend(params, strconv.FormatInt(params[1].(int64), 10))
}

func sbAppendBoolean(params []interface{}) interface{} {
	if params[1].(int64) != 0 {
		return sbAppend(params, "true")
	}
	return sbAppend(params, "false")
}

func sbAppendChar(params []interface{}) interface{} {
	return sbAppend(params, string(rune(params[1].(int64))))
}

func sbAppendDouble(params []interface{}) interface{} {
	return sbAppend(params, strconv.FormatFloat(params[1].(float64), 'g', -1, 64))
}

func sbToString(params []interface{}) interface{} {
	return vmHeap.InternString(sbValue(params))
}

// sbIsLatin1 always reports Latin1; see javaLangString.go's stringIsLatin1.
func sbIsLatin1([]interface{}) interface{} { return int64(1) }
