/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements athrow/checkcast/instanceof, spec.md §4.5.8/§4.5.9.
package jvm

import (
	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/vmerr"
)

// thrownRef wraps an already-heap-allocated guest exception object thrown
// by athrow, so unwindTo does not have to fabricate a second exception
// instance for a throw the guest code itself constructed and populated.
type thrownRef struct {
	id        uint32
	className string
}

func (t *thrownRef) Error() string { return t.className }

func (vm *VM) execAthrow(f *Frame) error {
	id := asRef(f.pop())
	if id == 0 {
		return vmerr.NullPointer("")
	}
	obj, ok := vm.Heap.Get(id)
	if !ok {
		return vmerr.NullPointer("")
	}
	return &thrownRef{id: id, className: obj.ClassName()}
}

func (vm *VM) classInfoAt(f *Frame, idx int) (*classloader.Class, error) {
	ci, ok := f.CP.Get(uint16(idx)).(*classloader.ClassInfo)
	if !ok {
		return nil, vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a Class", idx)
	}
	return classloader.ResolveClassRef(ci, f.CP, vm.Registry)
}

func (vm *VM) execCheckcast(f *Frame) error {
	idx := f.u2()
	id := asRef(f.peek())
	if id == 0 {
		return nil // checkcast never throws on a null reference
	}
	target, err := vm.classInfoAt(f, idx)
	if err != nil {
		return err
	}
	obj, ok := vm.Heap.Get(id)
	if !ok {
		return vmerr.NullPointer("")
	}
	objClass, err := vm.Registry.ResolveClass(obj.ClassName())
	if err != nil {
		return err
	}
	if !classloader.IsSameOrSubClassOf(objClass, target) {
		return vmerr.ClassCast(objClass.Name, target.Name)
	}
	return nil
}

func (vm *VM) execInstanceof(f *Frame) error {
	idx := f.u2()
	id := asRef(f.pop())
	if id == 0 {
		f.push(int64(0))
		return nil
	}
	target, err := vm.classInfoAt(f, idx)
	if err != nil {
		return err
	}
	obj, ok := vm.Heap.Get(id)
	if !ok {
		f.push(int64(0))
		return nil
	}
	objClass, err := vm.Registry.ResolveClass(obj.ClassName())
	if err != nil {
		return err
	}
	if classloader.IsSameOrSubClassOf(objClass, target) {
		f.push(int64(1))
	} else {
		f.push(int64(0))
	}
	return nil
}
