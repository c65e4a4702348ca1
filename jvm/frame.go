/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jvm implements components F and H of spec.md §3.9/§4.5: the
// frame/thread model and the bytecode interpreter. Its frame-stack shape
// (container/list, CreateFrame/PushFrame/PopFrame free functions) is
// grounded on the teacher's jvm/frames package; the five-rule vtable and
// class-init plumbing it drives come from package classloader.
package jvm

import (
	"container/list"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/vmerr"
)

// Frame is one method invocation's activation record, spec.md §3.9: an
// operand stack, a dense local-variable vector, a program counter into the
// owning method's bytecode, and (while an exception is in flight) the
// in-flight exception.
type Frame struct {
	ClName   string
	MethName string
	MethDesc string
	Method   *classloader.Method
	Class    *classloader.Class
	CP       *classloader.ConstantPool

	Code []byte
	PC   int

	OpStack []interface{} // grows/shrinks through push/pop; see below
	Locals  []interface{} // dense, fixed-size per spec.md §3.9

	// ExceptionPending is set by RunFrame on the caller when an exception
	// escapes a callee frame; RunFrame then searches this frame's exception
	// table for a matching handler (spec.md §4.5.10), and unwindTo clears it
	// once a handler claims it.
	ExceptionPending error
}

// CreateFrame allocates a Frame with locals pre-sized to localCount slots,
// matching the teacher's frames.CreateFrame(maxStack) convenience
// constructor (there, sized for the operand stack; here, for locals, since
// this port's OpStack grows dynamically via append).
func CreateFrame(localCount int) *Frame {
	return &Frame{Locals: make([]interface{}, localCount)}
}

// CreateFrameStack returns an empty frame stack, deepest-call-last.
func CreateFrameStack() *list.List {
	return list.New()
}

// PushFrame pushes f onto fs, returning StackOverflowError instead once fs
// already holds maxDepth frames (maxDepth <= 0 means no limit). execInvoke
// passes globals.MaxFrameDepth (spec.md §3.9's "stack overflow" edge case).
func PushFrame(fs *list.List, f *Frame, maxDepth int) error {
	if maxDepth > 0 && fs.Len() >= maxDepth {
		return vmerr.StackOverflow()
	}
	fs.PushFront(f)
	return nil
}

// PopFrame removes and returns the most recently pushed frame, or nil if
// fs is empty.
func PopFrame(fs *list.List) *Frame {
	front := fs.Front()
	if front == nil {
		return nil
	}
	fs.Remove(front)
	f, _ := front.Value.(*Frame)
	return f
}

// TopFrame returns the most recently pushed frame without removing it.
func TopFrame(fs *list.List) *Frame {
	front := fs.Front()
	if front == nil {
		return nil
	}
	f, _ := front.Value.(*Frame)
	return f
}

func (f *Frame) push(v interface{}) {
	f.OpStack = append(f.OpStack, v)
}

func (f *Frame) pop() interface{} {
	n := len(f.OpStack)
	if n == 0 {
		return nil
	}
	v := f.OpStack[n-1]
	f.OpStack = f.OpStack[:n-1]
	return v
}

func (f *Frame) peek() interface{} {
	n := len(f.OpStack)
	if n == 0 {
		return nil
	}
	return f.OpStack[n-1]
}
