/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements new/newarray/anewarray/arraylength, spec.md §4.3 and
// §4.5.5: allocate an object or array on the heap and push its identifier.
// Grounded on the teacher's instantiate.go for the overall shape (resolve
// class, ensure it is initialized, build the zeroed instance) but rewritten
// against this port's heap.Heap/object.Object/classloader.Class API rather
// than jacobin's direct-pointer object model.
package jvm

import (
	"strings"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/types"
	"github.com/brinestone/stackvm/vmerr"
)

func (vm *VM) execNew(th *ExecThread, f *Frame) error {
	idx := f.u2()
	ci, ok := f.CP.Get(uint16(idx)).(*classloader.ClassInfo)
	if !ok {
		return vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a Class", idx)
	}
	cls, err := classloader.ResolveClassRef(ci, f.CP, vm.Registry)
	if err != nil {
		return err
	}
	if cls.IsInterface() || cls.IsAbstract() {
		return vmerr.New("java/lang/InstantiationError", "%s", cls.Name)
	}
	if err := classloader.InitClass(cls, th.ID, vm.runClinit); err != nil {
		return err
	}

	layout := make([]object.FieldLayoutEntry, len(cls.InstanceLayout))
	for i, fd := range cls.InstanceLayout {
		layout[i] = object.FieldLayoutEntry{
			Name:       fd.Name,
			Descriptor: fd.Descriptor,
			Slot:       fd.Slot,
			Default:    types.DefaultValue(fd.Descriptor),
		}
	}
	obj := object.NewInstance(cls.Name, layout)
	f.push(vm.Heap.Allocate(obj))
	return nil
}

// newarrayDescriptor maps newarray's atype operand (spec.md §4.5.5) to its
// field-descriptor letter.
func newarrayDescriptor(atype int) string {
	switch atype {
	case atBoolean:
		return types.Boolean
	case atChar:
		return types.Char
	case atFloat:
		return types.Float
	case atDouble:
		return types.Double
	case atByte:
		return types.Byte
	case atShort:
		return types.Short
	case atInt:
		return types.Int
	case atLong:
		return types.Long
	default:
		return ""
	}
}

func (vm *VM) execNewarray(f *Frame) error {
	atype := f.u1()
	count := f.pop().(int64)
	if count < 0 {
		return vmerr.NegativeArraySize(int(count))
	}
	elemType := newarrayDescriptor(atype)
	if elemType == "" {
		return vmerr.New("java/lang/ClassFormatError", "newarray: unknown atype %d", atype)
	}
	arrClassName := "[" + elemType
	arrClass, err := vm.Registry.ResolveClass(arrClassName)
	if err != nil {
		return err
	}
	obj := object.NewArray(arrClass.Name, elemType, int(count), types.DefaultValue(elemType))
	f.push(vm.Heap.Allocate(obj))
	return nil
}

func (vm *VM) execAnewarray(f *Frame) error {
	idx := f.u2()
	count := f.pop().(int64)
	if count < 0 {
		return vmerr.NegativeArraySize(int(count))
	}
	ci, ok := f.CP.Get(uint16(idx)).(*classloader.ClassInfo)
	if !ok {
		return vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a Class", idx)
	}
	compName := f.CP.Utf8(ci.NameIndex)
	elemDescriptor := compName
	if !strings.HasPrefix(compName, "[") {
		elemDescriptor = "L" + compName + ";"
	}
	arrClassName := "[" + elemDescriptor
	arrClass, err := vm.Registry.ResolveClass(arrClassName)
	if err != nil {
		return err
	}
	obj := object.NewArray(arrClass.Name, elemDescriptor, int(count), nil)
	f.push(vm.Heap.Allocate(obj))
	return nil
}

// execMultianewarray implements spec.md §4.5.5's multianewarray: reads a
// dimension count and a constant-pool array-class index, pops that many int
// sizes off the operand stack (outermost dimension pushed first, so the first
// pop is the innermost size), and recursively allocates a tree of arrays.
func (vm *VM) execMultianewarray(f *Frame) error {
	idx := f.u2()
	dimensions := f.u1()
	if dimensions < 1 {
		return vmerr.New("java/lang/ClassFormatError", "multianewarray: dimensions must be >= 1, got %d", dimensions)
	}
	ci, ok := f.CP.Get(uint16(idx)).(*classloader.ClassInfo)
	if !ok {
		return vmerr.New("java/lang/ClassFormatError", "constant pool index %d is not a Class", idx)
	}
	arrClassName := f.CP.Utf8(ci.NameIndex)
	if !strings.HasPrefix(arrClassName, "[") {
		return vmerr.New("java/lang/ClassFormatError", "multianewarray: %s is not an array type", arrClassName)
	}

	counts := make([]int, dimensions)
	for i := dimensions - 1; i >= 0; i-- {
		c := f.pop().(int64)
		if c < 0 {
			return vmerr.NegativeArraySize(int(c))
		}
		counts[i] = int(c)
	}

	ref, err := vm.buildMultiArray(arrClassName, counts)
	if err != nil {
		return err
	}
	f.push(ref)
	return nil
}

// buildMultiArray recursively allocates the tree of arrays multianewarray
// describes: counts[0] sizes the array returned to the caller, counts[1:]
// size each of its elements in turn, down to counts[len(counts)-1] sizing
// the innermost arrays. arrClassName is the array descriptor naming the
// level currently being built (e.g. "[[I" then "[I" on the recursive call).
func (vm *VM) buildMultiArray(arrClassName string, counts []int) (uint32, error) {
	arrClass, err := vm.Registry.ResolveClass(arrClassName)
	if err != nil {
		return 0, err
	}
	elemDescriptor := arrClassName[1:]
	n := counts[0]

	if len(counts) == 1 {
		obj := object.NewArray(arrClass.Name, elemDescriptor, n, types.DefaultValue(elemDescriptor))
		return vm.Heap.Allocate(obj), nil
	}

	obj := object.NewArray(arrClass.Name, elemDescriptor, n, nil)
	id := vm.Heap.Allocate(obj)
	for i := 0; i < n; i++ {
		childRef, err := vm.buildMultiArray(elemDescriptor, counts[1:])
		if err != nil {
			return 0, err
		}
		obj.PutArrayElement(i, childRef)
	}
	return id, nil
}

func (vm *VM) execArraylength(f *Frame) error {
	ref := asRef(f.pop())
	obj, ok := vm.Heap.Get(ref)
	if !ok {
		return vmerr.NullPointer("")
	}
	f.push(int64(obj.ArrayLength()))
	return nil
}
