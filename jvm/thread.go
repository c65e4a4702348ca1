/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"container/list"
	"sync/atomic"
)

// ExecThread is one guest thread of execution: its frame stack plus the
// bookkeeping the teacher's jvm/thread.ExecThread carries (a monotonic id,
// a name, and a trace toggle that makes the interpreter log every executed
// instruction).
type ExecThread struct {
	ID      int64
	Name    string
	Stack   *list.List
	Trace   bool
	AppArgs []string
}

var nextThreadID int64

// CreateThread allocates a new thread with an empty frame stack and the
// next monotonically increasing thread id — used both for ordinary guest
// threads and for the single MainThread that runs a classfile's main().
func CreateThread() ExecThread {
	return ExecThread{
		ID:    atomic.AddInt64(&nextThreadID, 1),
		Stack: list.New(),
	}
}

// MainThread is the thread that executes the application's public static
// void main(String[]) method, exactly as the teacher's run.go holds a
// package-level MainThread singleton.
var MainThread ExecThread
