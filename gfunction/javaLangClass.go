/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/Class's natives, SPEC_FULL.md §4.7.1:
// registerNatives, getName, getSimpleName, isArray, isInterface,
// isPrimitive, getSuperclass, desiredAssertionStatus. Every instance here
// is a heap.Heap.ClassMirror id — a synthetic Object whose "name" field
// holds the class's raw binary name (see heap.ClassMirror), so every
// native below resolves the real *classloader.Class by that name rather
// than carrying its own pointer field.
package gfunction

import "strings"

func loadLangClass() {
	MethodSignatures["java/lang/Class.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["java/lang/Class.getName()Ljava/lang/String;"] = GMeth{GFunction: classGetName}
	MethodSignatures["java/lang/Class.getSimpleName()Ljava/lang/String;"] = GMeth{GFunction: classGetSimpleName}
	MethodSignatures["java/lang/Class.isArray()Z"] = GMeth{GFunction: classIsArray}
	MethodSignatures["java/lang/Class.isInterface()Z"] = GMeth{GFunction: classIsInterface}
	MethodSignatures["java/lang/Class.isPrimitive()Z"] = GMeth{GFunction: classIsPrimitive}
	MethodSignatures["java/lang/Class.getSuperclass()Ljava/lang/Class;"] = GMeth{GFunction: classGetSuperclass}
	MethodSignatures["java/lang/Class.desiredAssertionStatus()Z"] = GMeth{GFunction: classDesiredAssertionStatus}
}

func mirrorClassName(params []interface{}) (string, bool) {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return "", false
	}
	f, ok := obj.GetFieldByName("name")
	if !ok {
		return "", false
	}
	name, ok := f.Fvalue.(string)
	return name, ok
}

func classGetName(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return vmHeap.InternString(strings.ReplaceAll(name, "/", "."))
}

func classGetSimpleName(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return vmHeap.InternString(name)
}

func classIsArray(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	if strings.HasPrefix(name, "[") {
		return int64(1)
	}
	return int64(0)
}

func classIsInterface(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	cls := vmRegistry.Get(name)
	if cls != nil && cls.IsInterface() {
		return int64(1)
	}
	return int64(0)
}

func classIsPrimitive(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	switch name {
	case "B", "C", "D", "F", "I", "J", "S", "Z", "V":
		return int64(1)
	}
	return int64(0)
}

func classGetSuperclass(params []interface{}) interface{} {
	name, ok := mirrorClassName(params)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	cls := vmRegistry.Get(name)
	if cls == nil || cls.Super == nil {
		return uint32(0)
	}
	return vmHeap.ClassMirror(cls.Super)
}

func classDesiredAssertionStatus([]interface{}) interface{} { return int64(0) }
