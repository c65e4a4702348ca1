/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements getstatic/putstatic/getfield/putfield, spec.md
// §4.5.7: resolve the CONSTANT_Fieldref (classloader.ResolveFieldRef,
// cached per spec.md §9), trigger the owning class's initialization for
// the static forms, then read or write the resolved slot.
package jvm

import (
	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/vmerr"
)

func (vm *VM) resolveFieldAt(f *Frame, idx int) (*classloader.FieldResolution, error) {
	fr, ok := f.CP.Get(uint16(idx)).(*classloader.FieldrefInfo)
	if !ok {
		return nil, vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a Fieldref", idx)
	}
	return classloader.ResolveFieldRef(fr, f.CP, vm.Registry)
}

func (vm *VM) execStaticField(th *ExecThread, f *Frame, op int) error {
	idx := f.u2()
	res, err := vm.resolveFieldAt(f, idx)
	if err != nil {
		return err
	}
	if err := classloader.InitClass(res.OwnerClass, th.ID, vm.runClinit); err != nil {
		return err
	}
	if op == opGetstatic {
		f.push(res.OwnerClass.GetStatic(res.Slot).Value)
		return nil
	}
	res.OwnerClass.PutStatic(res.Slot, f.pop())
	return nil
}

func (vm *VM) execInstanceField(f *Frame, op int) error {
	idx := f.u2()
	res, err := vm.resolveFieldAt(f, idx)
	if err != nil {
		return err
	}
	if op == opPutfield {
		v := f.pop()
		ref := asRef(f.pop())
		obj, ok := vm.Heap.Get(ref)
		if !ok {
			return vmerr.NullPointer("")
		}
		obj.PutFieldBySlot(res.Slot, object.Field{Ftype: res.Descriptor, Fvalue: v})
		return nil
	}
	ref := asRef(f.pop())
	obj, ok := vm.Heap.Get(ref)
	if !ok {
		return vmerr.NullPointer("")
	}
	f.push(obj.GetFieldBySlot(res.Slot).Fvalue)
	return nil
}

// runClinit adapts the interpreter to classloader.ClinitRunner: build and
// execute a frame for cls's <clinit>, per spec.md §4.4.4. InitClass does
// not thread the calling thread's id through ClinitRunner's signature, so
// this runs <clinit> on the VM's single always-present MainThread id; guest
// code triggering class init from a second guest thread still observes
// the same "runs exactly once, everyone else blocks" behavior via
// Class.beginInit's own locking, only the bytecode execution itself is
// attributed to MainThread rather than the triggering thread.
func (vm *VM) runClinit(cls *classloader.Class) error {
	clinit := cls.FindMethod("<clinit>", "()V")
	if clinit == nil || clinit.Code == nil {
		return nil
	}
	fs := CreateFrameStack()
	cf := CreateFrame(int(clinit.Code.MaxLocals))
	cf.ClName = cls.Name
	cf.MethName = "<clinit>"
	cf.MethDesc = "()V"
	cf.Method = clinit
	cf.Class = cls
	cf.CP = cls.CP
	cf.Code = clinit.Code.Code
	if err := PushFrame(fs, cf, 0); err != nil {
		return err
	}
	th := ExecThread{ID: MainThread.ID, Stack: fs}
	return vm.RunFrame(&th)
}
