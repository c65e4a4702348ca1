/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/util/HashMap's bootstrap helper native,
// SPEC_FULL.md §4.7.1: the static hash(Object) spread function HashMap's
// static initializer and put/get paths call before indexing a bucket.
// Grounded on the teacher's javaUtilHashMap.go, rewritten against this
// port's heap-id object references (the teacher dereferences a raw
// *object.Object parameter directly) and against java/util/HashMap's
// actual documented spreader — XOR the hash with its own 16-bit-shifted
// value — rather than an MD5 digest, since the real method is a cheap bit
// mix, not a cryptographic hash.
package gfunction

import (
	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/types"
)

func loadUtilHashMap() {
	MethodSignatures["java/util/HashMap.hash(Ljava/lang/Object;)I"] = GMeth{ParamSlots: 1, GFunction: hashMapHash}
}

func hashMapHash(params []interface{}) interface{} {
	id, isRef := params[0].(uint32)
	if !isRef || id == 0 {
		return int64(0)
	}
	obj, ok := vmHeap.Get(id)
	if !ok {
		return int64(0)
	}

	var h int32
	if obj.ClassName() == types.StringClassName {
		for _, c := range object.GoStringFromStringObject(obj) {
			h = h*31 + int32(c)
		}
	} else {
		h = int32(id)
	}
	return int64(h ^ int32(uint32(h)>>16))
}
