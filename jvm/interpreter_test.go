/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinestone/stackvm/classloader"
)

// runMethod wraps code in a single-frame thread with a synthetic caller
// beneath it and runs it to completion, returning whatever the method
// pushed back onto its caller via its return opcode.
func runMethod(t *testing.T, code []byte, maxLocals int) interface{} {
	t.Helper()
	vm := NewVM(classloader.NewRegistry(classloader.AppCL))
	cp := &classloader.ConstantPool{Entries: []classloader.CpInfo{&classloader.DummyInfo{}}}

	caller := CreateFrame(1)
	callee := CreateFrame(maxLocals)
	callee.ClName = "Test"
	callee.MethName = "run"
	callee.CP = cp
	callee.Code = code

	fs := CreateFrameStack()
	require.NoError(t, PushFrame(fs, caller, 0))
	require.NoError(t, PushFrame(fs, callee, 0))

	th := ExecThread{ID: 1, Stack: fs}
	require.NoError(t, vm.RunFrame(&th))
	return caller.peek()
}

func patchS2(code []byte, at, value int) {
	code[at] = byte(value >> 8)
	code[at+1] = byte(value)
}

// TestInterpreterArithmeticLoop sums 1..5 with a counting loop:
//
//	iconst_0; istore_1            // sum = 0
//	iconst_1; istore_2            // i = 1
//	loop: iload_2; iconst_5; if_icmpgt end
//	      iload_1; iload_2; iadd; istore_1
//	      iinc 2, 1
//	      goto loop
//	end:  iload_1; ireturn
func TestInterpreterArithmeticLoop(t *testing.T) {
	code := []byte{
		byte(opIconst0), byte(opIstore1), // 0,1
		byte(opIconst1), byte(opIstore2), // 2,3
		byte(opIload2), byte(opIconst5), byte(opIfIcmpgt), 0, 0, // 4,5,6,7,8
		byte(opIload1), byte(opIload2), byte(opIadd), byte(opIstore1), // 9,10,11,12
		byte(opIinc), 0x02, 0x01, // 13,14,15
		byte(opGoto), 0, 0, // 16,17,18
		byte(opIload1), byte(opIreturn), // 19,20
	}
	loopStart := 4
	ifIcmpgtAt := 6 // position of the if_icmpgt opcode byte itself
	endTarget := 19 // position of the trailing "iload_1"
	patchS2(code, ifIcmpgtAt+1, endTarget-ifIcmpgtAt)
	gotoAt := 16
	patchS2(code, gotoAt+1, loopStart-gotoAt)

	assert.Equal(t, int64(15), runMethod(t, code, 3))
}

func TestInterpreterDivideByZeroThrows(t *testing.T) {
	vm := NewVM(classloader.NewRegistry(classloader.AppCL))
	cp := &classloader.ConstantPool{Entries: []classloader.CpInfo{&classloader.DummyInfo{}}}
	callee := CreateFrame(2)
	callee.ClName = "Test"
	callee.MethName = "run"
	callee.CP = cp
	callee.Code = []byte{byte(opIconst1), byte(opIconst0), byte(opIdiv), byte(opIreturn)}

	fs := CreateFrameStack()
	require.NoError(t, PushFrame(fs, callee, 0))
	th := ExecThread{ID: 1, Stack: fs}

	err := vm.RunFrame(&th)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ArithmeticException")
}

func TestInterpreterStackManipulation(t *testing.T) {
	// push 3, push 4 -> [3,4]; swap -> [4,3]; pop discards top (3),
	// leaving 4 to be returned.
	code := []byte{
		byte(opIconst3), byte(opIconst4), byte(opSwap), byte(opPop), byte(opIreturn),
	}
	assert.Equal(t, int64(4), runMethod(t, code, 0))
}

func TestInterpreterCompareAndBranch(t *testing.T) {
	// if (2 < 5) return 1; else return 0;
	code := []byte{
		byte(opIconst2), byte(opIconst5), byte(opIfIcmpge), 0, 5, // opcode@2, else target@7: offset 5
		byte(opIconst1), byte(opIreturn),
		byte(opIconst0), byte(opIreturn), // else: offset 7
	}
	assert.Equal(t, int64(1), runMethod(t, code, 0))
}
