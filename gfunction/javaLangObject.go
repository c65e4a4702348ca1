/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/Object's natives, SPEC_FULL.md §4.7.1:
// registerNatives, hashCode, getClass, clone, notify/notifyAll, wait(J).
package gfunction

import "github.com/brinestone/stackvm/classloader"

func loadLangObject() {
	MethodSignatures["java/lang/Object.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["java/lang/Object.hashCode()I"] = GMeth{GFunction: objectHashCode}
	MethodSignatures["java/lang/Object.getClass()Ljava/lang/Class;"] = GMeth{GFunction: objectGetClass}
	MethodSignatures["java/lang/Object.clone()Ljava/lang/Object;"] = GMeth{GFunction: objectClone}
	MethodSignatures["java/lang/Object.notify()V"] = GMeth{GFunction: objectNotify}
	MethodSignatures["java/lang/Object.notifyAll()V"] = GMeth{GFunction: objectNotifyAll}
	MethodSignatures["java/lang/Object.wait(J)V"] = GMeth{ParamSlots: 2, GFunction: objectWait}
}

// objectHashCode returns the receiver's heap identifier as its identity
// hash, per SPEC_FULL.md §4.7.1 ("identity hash from the object id") —
// stable for the object's lifetime and unique among live objects, which is
// all Object.hashCode's contract requires.
func objectHashCode(params []interface{}) interface{} {
	id, ok := params[0].(uint32)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	return int64(id)
}

func objectGetClass(params []interface{}) interface{} {
	id := params[0].(uint32)
	obj, ok := vmHeap.Get(id)
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	cls, err := vmRegistry.ResolveClass(obj.ClassName())
	if err != nil {
		return getGErrBlk("java/lang/NoClassDefFoundError", "%s", obj.ClassName())
	}
	return vmHeap.ClassMirror(cls)
}

func objectClone(params []interface{}) interface{} {
	id := params[0].(uint32)
	if obj, ok := vmHeap.Get(id); ok && !obj.IsArray() {
		cls, err := vmRegistry.ResolveClass(obj.ClassName())
		cloneable, cerr := vmRegistry.ResolveClass("java/lang/Cloneable")
		if err != nil || cerr != nil || !classloader.IsClassImplements(cls, cloneable) {
			return getGErrBlk("java/lang/CloneNotSupportedException", "%s", obj.ClassName())
		}
	}
	clone, ok := vmHeap.Clone(id)
	if !ok {
		return getGErrBlk("java/lang/CloneNotSupportedException", "")
	}
	return clone
}

func objectNotify(params []interface{}) interface{} {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	obj.GetMonitor().Notify()
	return nil
}

func objectNotifyAll(params []interface{}) interface{} {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	obj.GetMonitor().NotifyAll()
	return nil
}

func objectWait(params []interface{}) interface{} {
	obj, ok := vmHeap.Get(params[0].(uint32))
	if !ok {
		return getGErrBlk("java/lang/NullPointerException", "")
	}
	timeoutMs := params[1].(int64)
	obj.GetMonitor().Wait(timeoutMs)
	return nil
}
