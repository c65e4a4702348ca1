/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction implements component 4.7, spec.md §4.7/SPEC_FULL.md
// §4.7.1: the native-method bridge. Grounded on the teacher's gfunction
// package shape — a MethodSignatures table keyed by
// "class/name.method(descriptor)" mapping to a GMeth carrying a parameter
// count and a GFunction closure — but rewritten against this port's
// heap.Heap/object.Object/classloader.Registry API rather than jacobin's
// direct frame/stack access, and installed as jvm.NativeBridge rather than
// being called directly from the interpreter's dispatch loop.
package gfunction

import (
	"fmt"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/heap"
	"github.com/brinestone/stackvm/jvm"
	"github.com/brinestone/stackvm/vmerr"
)

// GFunction is a native method body. params[0] is the receiver for an
// instance method (absent for static methods); the remaining entries are
// the method's declared arguments in left-to-right order, each either a
// Go-primitive value (int64/float64) or a heap identifier (uint32) for a
// reference parameter. A GFunction returns nil for void success, a
// *GErrBlk to raise a guest exception, or any other value to push as the
// method's return.
type GFunction func(params []interface{}) interface{}

// GMeth is one entry of the native method table: how many argument slots
// the interpreter must pop (the teacher's ParamSlots, used by callers that
// build the args slice, mirrored here for documentation parity even though
// this port's bridge already receives args pre-popped by jvm.execInvoke)
// and the Go closure that implements it.
type GMeth struct {
	ParamSlots int
	GFunction  GFunction
}

// GErrBlk is the error shape a GFunction returns to raise a guest
// exception without importing package vmerr into every native (the teacher
// does the same: gfunction doesn't know about jacobin's exceptions package
// internals, just an exception class name and a message).
type GErrBlk struct {
	ExceptionType string
	ErrMsg        string
}

func getGErrBlk(excClass, format string, args ...interface{}) *GErrBlk {
	return &GErrBlk{ExceptionType: excClass, ErrMsg: fmt.Sprintf(format, args...)}
}

// MethodSignatures is the native method table, keyed by
// "class/binary/Name.method(descriptor)". Each load* function in this
// package populates its own slice of entries at Install time.
var MethodSignatures = make(map[string]GMeth)

var (
	vmHeap     *heap.Heap
	vmRegistry *classloader.Registry
)

// Install wires every native method this VM ships into MethodSignatures
// and installs the dispatcher as jvm.NativeBridge, exactly as the teacher's
// startup sequence loads every gfunction.Load_* table before running a
// class's main(). Must run once, before the first guest bytecode executes.
func Install(h *heap.Heap, reg *classloader.Registry) {
	vmHeap = h
	vmRegistry = reg

	loadLangObject()
	loadLangClass()
	loadLangString()
	loadLangStringBuilder()
	loadLangSystem()
	loadLangFloatDouble()
	loadLangThread()
	loadInternalMisc()
	loadUtilHashMap()
	loadIoPrintStream()

	jvm.NativeBridge = dispatch
}

func dispatch(className, methodName, descriptor string, args []interface{}) (interface{}, bool, error) {
	key := className + "." + methodName + descriptor
	gm, ok := MethodSignatures[key]
	if !ok {
		return nil, false, vmerr.New("java/lang/UnsatisfiedLinkError", "%s", key)
	}
	ret := gm.GFunction(args)
	switch r := ret.(type) {
	case nil:
		return nil, false, nil
	case *GErrBlk:
		return nil, false, vmerr.New(r.ExceptionType, "%s", r.ErrMsg)
	default:
		return ret, true, nil
	}
}

// justReturn is the GFunction for natives this VM treats as an accepted
// no-op (registerNatives, and any <clinit> this port doesn't need to run
// because the class-library state it would set up isn't modeled).
func justReturn([]interface{}) interface{} { return nil }
