/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements invokevirtual/invokespecial/invokestatic/
// invokeinterface, spec.md §4.5.1/§4.4.3: resolve the constant-pool
// methodref (classloader.MethodrefInfo.Resolve /
// InterfaceMethodrefInfo.Resolve), dispatch either statically
// (invokespecial/invokestatic, and any VtableSlot == -1 resolution), through
// the receiver's own runtime-class vtable indexed by slot (invokevirtual),
// or through the receiver's vtable searched by name+descriptor
// (invokeinterface, since an interface method carries no slot of its own —
// see classloader.Class.FindVtableMethod), and push a new frame — or, for a
// native method, hand off to the native bridge that package gfunction
// installs as NativeBridge.
package jvm

import (
	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/descriptor"
	"github.com/brinestone/stackvm/globals"
	"github.com/brinestone/stackvm/types"
	"github.com/brinestone/stackvm/vmerr"
)

// NativeBridge is the native-method call-out hook component G (package
// gfunction) installs at startup. It is nil until gfunction registers
// itself, matching the teacher's pattern of wiring the gfunction table
// into run.go's dispatch only once the native method table has been built.
var NativeBridge func(className, methodName, descriptor string, args []interface{}) (interface{}, bool, error)

func (vm *VM) execInvoke(th *ExecThread, f *Frame, op int) error {
	idx := f.u2()
	if op == opInvokeinterface {
		f.u1() // count, unused: arg count is recomputed from the descriptor
		f.u1() // reserved, always 0
	}

	var res *classloader.MethodResolution
	var err error
	switch e := f.CP.Get(uint16(idx)).(type) {
	case *classloader.MethodrefInfo:
		res, err = e.Resolve(f.CP, vm.Registry)
	case *classloader.InterfaceMethodrefInfo:
		res, err = e.Resolve(f.CP, vm.Registry)
	default:
		return vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a method reference", idx)
	}
	if err != nil {
		return err
	}

	mt, err := descriptor.ParseMethodDescriptor(res.Method.Descriptor)
	if err != nil {
		return err
	}
	argc := len(mt.Parameters)
	args := make([]interface{}, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.pop()
	}

	static := op == opInvokestatic
	var receiver uint32
	var receiverClass *classloader.Class
	if !static {
		receiver = asRef(f.pop())
		obj, ok := vm.Heap.Get(receiver)
		if !ok {
			return vmerr.NullPointer("")
		}
		receiverClass, err = vm.Registry.ResolveClass(obj.ClassName())
		if err != nil {
			return err
		}
	}

	method := res.Method
	// invokevirtual/invokeinterface dispatch through the receiver's own
	// vtable unless resolution already pinned a static binding (private,
	// <init>, or a statically-bound invokespecial target).
	if !static && op == opInvokeinterface {
		// An interface method's own VtableSlot is never meaningful (buildVtable
		// never builds a vtable for the interface itself), so a numeric slot
		// captured off the interface side cannot be trusted here — search the
		// concrete receiver's vtable by name+descriptor instead, exactly like
		// invokevirtual would if it knew the override's slot in advance.
		if m := receiverClass.FindVtableMethod(method.Name, method.Descriptor); m != nil {
			method = m
		}
	} else if !static && op != opInvokespecial && res.VtableSlot >= 0 {
		if res.VtableSlot < len(receiverClass.Vtable) {
			method = receiverClass.Vtable[res.VtableSlot]
		}
	}

	if method.IsStatic() {
		if err := classloader.InitClass(method.OwnerClass, th.ID, vm.runClinit); err != nil {
			return err
		}
	}

	if method.IsNative() {
		if NativeBridge == nil {
			return vmerr.New("java/lang/UnsatisfiedLinkError", "%s.%s%s", method.OwnerClass.Name, method.Name, method.Descriptor)
		}
		callArgs := args
		if !static {
			callArgs = append([]interface{}{receiver}, args...)
		}
		ret, hasRet, nerr := NativeBridge(method.OwnerClass.Name, method.Name, method.Descriptor, callArgs)
		if nerr != nil {
			return nerr
		}
		if hasRet {
			f.push(ret)
		}
		return nil
	}

	if method.Code == nil {
		return vmerr.New("java/lang/AbstractMethodError", "%s.%s%s", method.OwnerClass.Name, method.Name, method.Descriptor)
	}

	callee := CreateFrame(int(method.Code.MaxLocals))
	callee.ClName = method.OwnerClass.Name
	callee.MethName = method.Name
	callee.MethDesc = method.Descriptor
	callee.Method = method
	callee.Class = method.OwnerClass
	callee.CP = method.OwnerClass.CP
	callee.Code = method.Code.Code

	localIdx := 0
	if !static {
		callee.Locals[0] = receiver
		localIdx = 1
	}
	for i, p := range mt.Parameters {
		callee.Locals[localIdx] = args[i]
		localIdx += types.SlotSize(p.Letter())
	}

	return PushFrame(th.Stack, callee, globals.GetGlobalRef().MaxFrameDepth)
}
