/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements java/lang/Thread's natives, SPEC_FULL.md §4.7.1:
// registerNatives, currentThread, setPriority0 (stub), isAlive (stub
// returning false, since this port has no guest thread scheduler — spec.md
// §1 Non-goals). sleep is kept from the teacher's javaLangThread.go, the
// one native here with real, grounded behavior.
package gfunction

import "time"

func loadLangThread() {
	MethodSignatures["java/lang/Thread.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["java/lang/Thread.sleep(J)V"] = GMeth{ParamSlots: 2, GFunction: threadSleep}
	MethodSignatures["java/lang/Thread.currentThread()Ljava/lang/Thread;"] = GMeth{GFunction: threadCurrentThread}
	MethodSignatures["java/lang/Thread.setPriority0(I)V"] = GMeth{ParamSlots: 1, GFunction: justReturn}
	MethodSignatures["java/lang/Thread.isAlive()Z"] = GMeth{GFunction: threadIsAlive}
}

// "java/lang/Thread.sleep(J)V"
func threadSleep(params []interface{}) interface{} {
	ms, ok := params[0].(int64)
	if !ok {
		return getGErrBlk("java/lang/IllegalArgumentException", "sleep: expected a long millisecond count")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return nil
}

// threadCurrentThread has no guest Thread object to return (no scheduler
// models more than the single always-present main thread), so it reports
// the null reference rather than fabricating an instance callers might
// try to join() or interrupt().
func threadCurrentThread([]interface{}) interface{} { return uint32(0) }

func threadIsAlive([]interface{}) interface{} { return int64(0) }
