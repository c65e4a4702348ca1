/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/System's natives, SPEC_FULL.md §4.7.1:
// currentTimeMillis, nanoTime, arraycopy, identityHashCode, exit,
// registerNatives. None of these are grounded on a teacher file (the
// example pack's gfunction slice doesn't carry a System implementation) so
// this is written directly against the real JDK's documented contract,
// wired to package shutdown for exit and package time for the clocks.
package gfunction

import (
	"time"

	"github.com/brinestone/stackvm/shutdown"
)

func loadLangSystem() {
	MethodSignatures["java/lang/System.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["java/lang/System.currentTimeMillis()J"] = GMeth{GFunction: systemCurrentTimeMillis}
	MethodSignatures["java/lang/System.nanoTime()J"] = GMeth{GFunction: systemNanoTime}
	MethodSignatures["java/lang/System.arraycopy(Ljava/lang/Object;ILjava/lang/Object;II)V"] = GMeth{ParamSlots: 5, GFunction: systemArraycopy}
	MethodSignatures["java/lang/System.identityHashCode(Ljava/lang/Object;)I"] = GMeth{ParamSlots: 1, GFunction: systemIdentityHashCode}
	MethodSignatures["java/lang/System.exit(I)V"] = GMeth{ParamSlots: 1, GFunction: systemExit}
}

func systemCurrentTimeMillis([]interface{}) interface{} {
	return int64(time.Now().UnixMilli())
}

func systemNanoTime([]interface{}) interface{} {
	return int64(time.Now().UnixNano())
}

func systemArraycopy(params []interface{}) interface{} {
	srcID, _ := params[0].(uint32)
	srcPos := params[1].(int64)
	destID, _ := params[2].(uint32)
	destPos := params[3].(int64)
	length := params[4].(int64)

	src, ok := vmHeap.Get(srcID)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	dest, ok := vmHeap.Get(destID)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	if srcPos < 0 || destPos < 0 || length < 0 ||
		int(srcPos+length) > src.ArrayLength() || int(destPos+length) > dest.ArrayLength() {
		return getGErrBlk("java/lang/ArrayIndexOutOfBoundsException", "")
	}
	// Copy through a staging slice first so overlapping src==dest regions
	// (e.g. shifting an array's tail left) observe the pre-copy values for
	// every element, matching arraycopy's "as if" semantics.
	staged := make([]interface{}, length)
	for i := int64(0); i < length; i++ {
		staged[i] = src.GetArrayElement(int(srcPos + i))
	}
	for i := int64(0); i < length; i++ {
		dest.PutArrayElement(int(destPos+i), staged[i])
	}
	return nil
}

func systemIdentityHashCode(params []interface{}) interface{} {
	id, _ := params[0].(uint32)
	return int64(id)
}

func systemExit(params []interface{}) interface{} {
	shutdown.Exit(int(params[0].(int64)))
	return nil
}
