/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements monitorenter/monitorexit, spec.md §4.5.9/§3.12:
// the per-object reentrant lock in object.Monitor, acquired/released by
// the current guest thread's id.
package jvm

import "github.com/brinestone/stackvm/vmerr"

func (vm *VM) execMonitorenter(th *ExecThread, f *Frame) error {
	id := asRef(f.pop())
	obj, ok := vm.Heap.Get(id)
	if !ok {
		return vmerr.NullPointer("")
	}
	obj.GetMonitor().Enter(th.ID)
	return nil
}

func (vm *VM) execMonitorexit(th *ExecThread, f *Frame) error {
	id := asRef(f.pop())
	obj, ok := vm.Heap.Get(id)
	if !ok {
		return vmerr.NullPointer("")
	}
	if !obj.GetMonitor().Exit(th.ID) {
		return vmerr.IllegalMonitorState("")
	}
	return nil
}
