/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file is the one piece of jvm's public surface cmd/stackvm calls
// into: resolve the main class, locate public static void main(String[]),
// build its args array and initial frame, and drive it to completion on
// MainThread. Grounded on the teacher's run.go's "load main class, find
// main, build the initial frame, run" sequence, adapted to this port's
// heap-id object model (a String[] here is a heap.Heap array object whose
// elements are interned-String ids, not Go string pointers).
package jvm

import (
	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/vmerr"
)

const mainDescriptor = "([Ljava/lang/String;)V"

// StartMain resolves mainClass, locates its main(String[]) entry point,
// and runs it to completion on MainThread, exactly as invoking `java
// MainClass arg1 arg2` would. appArgs becomes the guest-visible
// String[] argument.
func StartMain(vm *VM, mainClass string, appArgs []string) error {
	cls, err := vm.Registry.ResolveClass(mainClass)
	if err != nil {
		return err
	}

	method := cls.FindMethod("main", mainDescriptor)
	if method == nil {
		return vmerr.New("java/lang/NoSuchMethodError", "%s.main%s", mainClass, mainDescriptor)
	}
	if !method.IsStatic() {
		return vmerr.New("java/lang/NoSuchMethodError", "%s.main%s is not static", mainClass, mainDescriptor)
	}
	if method.Code == nil {
		return vmerr.New("java/lang/AbstractMethodError", "%s.main%s", mainClass, mainDescriptor)
	}

	MainThread = CreateThread()
	MainThread.Name = "main"
	MainThread.AppArgs = appArgs

	if err := classloader.InitClass(cls, MainThread.ID, vm.runClinit); err != nil {
		return err
	}

	argsArray, err := vm.buildStringArray(appArgs)
	if err != nil {
		return err
	}

	frame := CreateFrame(int(method.Code.MaxLocals))
	frame.ClName = cls.Name
	frame.MethName = method.Name
	frame.MethDesc = method.Descriptor
	frame.Method = method
	frame.Class = cls
	frame.CP = cls.CP
	frame.Code = method.Code.Code
	frame.Locals[0] = argsArray

	if err := PushFrame(MainThread.Stack, frame, 0); err != nil {
		return err
	}
	return vm.RunFrame(&MainThread)
}

// buildStringArray allocates a java.lang.String[] heap object populated
// with interned copies of args, the shape public static void main(String[])
// expects as its sole parameter.
func (vm *VM) buildStringArray(args []string) (uint32, error) {
	stringArrayClass, err := vm.Registry.ResolveClass("[Ljava/lang/String;")
	if err != nil {
		return 0, err
	}
	arr := object.NewArray(stringArrayClass.Name, "Ljava/lang/String;", len(args), uint32(0))
	for i, a := range args {
		arr.PutArrayElement(i, vm.Heap.InternString(a))
	}
	return vm.Heap.Allocate(arr), nil
}
