/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements the bytecode dispatch loop, spec.md §4.5: one
// opcode at a time, against the top frame of the current thread's frame
// stack, until that frame returns or an uncaught exception unwinds past
// the bottom of the stack.
//
// Unlike the JVM spec's physical two-slot layout for long/double locals
// and operand-stack entries, this port's Frame.OpStack/Locals are plain
// []interface{} — a long or double occupies exactly one Go slice element,
// holding an int64 or float64. This is a deliberate simplification (Go's
// interface{} already carries a width-appropriate boxed value; there is no
// reason to burn two slice slots mimicking the JVM's packed-32-bit-words
// physical layout) that changes nothing observable: slot *counts* computed
// by types.SlotSize/ParameterSlotCount still drive local-variable-array
// sizing and descriptor bookkeeping everywhere outside this file.
package jvm

import (
	"fmt"
	"math"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/heap"
	"github.com/brinestone/stackvm/object"
	"github.com/brinestone/stackvm/trace"
	"github.com/brinestone/stackvm/vmerr"
)

// VM bundles the shared runtime state every frame's execution needs:
// the object heap and the class registry. A single VM serves every guest
// thread.
type VM struct {
	Heap     *heap.Heap
	Registry *classloader.Registry
}

// NewVM returns a VM with a fresh heap, resolving classes through reg.
func NewVM(reg *classloader.Registry) *VM {
	return &VM{Heap: heap.New(), Registry: reg}
}

func (f *Frame) u1() int {
	v := int(f.Code[f.PC])
	f.PC++
	return v
}

func (f *Frame) u2() int {
	v := int(f.Code[f.PC])<<8 | int(f.Code[f.PC+1])
	f.PC += 2
	return v
}

func (f *Frame) s1() int {
	return int(int8(f.u1()))
}

func (f *Frame) s2() int {
	return int(int16(f.u2()))
}

func (f *Frame) s4() int {
	v := int32(uint32(f.Code[f.PC])<<24 | uint32(f.Code[f.PC+1])<<16 |
		uint32(f.Code[f.PC+2])<<8 | uint32(f.Code[f.PC+3]))
	f.PC += 4
	return int(v)
}

// RunFrame executes frames on fs, innermost (front) first, until fs is
// empty or an uncaught exception propagates out of the bottom frame —
// mirroring the teacher's run.go loop structure (a driver that keeps
// calling runFrame on the current top frame until the thread's stack
// empties).
func (vm *VM) RunFrame(th *ExecThread) error {
	for {
		f := TopFrame(th.Stack)
		if f == nil {
			return nil
		}
		err := f.ExceptionPending
		if err == nil {
			err = vm.execFrame(th, f)
			if err == nil {
				continue // execFrame already popped f on a normal return
			}
		}
		if !vm.unwindTo(f, err) {
			PopFrame(th.Stack)
			if th.Stack.Len() == 0 {
				return err
			}
			caller := TopFrame(th.Stack)
			caller.ExceptionPending = err
			continue
		}
		// a handler in f itself claimed the exception; execFrame's next
		// iteration resumes at f.PC, which unwindTo has already set to
		// the handler's start.
	}
}

// unwindTo searches f's method's exception table for a handler covering
// the PC at which err was raised, per spec.md §4.5.10. On a match it
// pushes the exception object (or a synthetic one, if err has no heap
// identity yet) and repositions f.PC at the handler, returning true.
func (vm *VM) unwindTo(f *Frame, err error) bool {
	if f.Method == nil || f.Method.Code == nil {
		return false
	}

	var className string
	var id uint32
	if tr, ok := err.(*thrownRef); ok {
		className, id = tr.className, tr.id
	} else {
		className = vmerr.AsVMException(err).ClassName
	}

	// f.PC has already moved past the instruction that raised err (past the
	// invoke, for an exception rethrown from a callee), so pc falls inside
	// that instruction's own bytes.
	pc := f.PC - 1
	for _, et := range f.Method.Code.ExceptionTable {
		if pc < et.StartPC || pc >= et.EndPC {
			continue
		}
		if et.CatchType != 0 {
			ci, ok := f.CP.Get(uint16(et.CatchType)).(*classloader.ClassInfo)
			if !ok {
				continue
			}
			catchClass, rerr := classloader.ResolveClassRef(ci, f.CP, vm.Registry)
			if rerr != nil {
				continue
			}
			thrown := vm.Registry.Get(className)
			if thrown == nil || !classloader.IsSameOrSubClassOf(thrown, catchClass) {
				continue
			}
		}
		if id == 0 {
			id = vm.allocateException(vmerr.AsVMException(err))
		}
		f.OpStack = f.OpStack[:0]
		f.push(id)
		f.PC = et.HandlerPC
		f.ExceptionPending = nil
		return true
	}
	return false
}

// allocateException materializes a VMException as a guest-visible
// throwable instance with a "message" field, so a handler's catch block
// can call getMessage() on it like any other exception object.
func (vm *VM) allocateException(vmx *vmerr.VMException) uint32 {
	obj := object.MakeEmptyObject()
	className := vmx.ClassName
	obj.Klass = &className
	msgRef := vm.Heap.InternString(vmx.Message)
	obj.PutFieldByName("message", object.Field{Ftype: "Ljava/lang/String;", Fvalue: msgRef})
	return vm.Heap.Allocate(obj)
}

// execFrame runs f until it returns normally (in which case it is popped
// and the return value, if any, pushed to the caller) or an error (Go
// error or VMException) interrupts it.
func (vm *VM) execFrame(th *ExecThread, f *Frame) error {
	for {
		if f.PC >= len(f.Code) {
			PopFrame(th.Stack)
			return nil
		}
		op := f.u1()
		if th.Trace {
			trace.Trace(fmt.Sprintf("%s.%s PC=%d op=0x%02X", f.ClName, f.MethName, f.PC-1, op), trace.FINEST)
		}

		var err error
		switch {
		case op == opNop:
		case op >= opAconstNull && op <= opDconst1:
			execConst(f, op)
		case op == opBipush:
			f.push(int64(f.s1()))
		case op == opSipush:
			f.push(int64(f.s2()))
		case op == opLdc || op == opLdcW || op == opLdc2W:
			err = vm.execLdc(f, op)
		case isLoadOp(op):
			execLoad(f, op)
		case isStoreOp(op):
			execStore(f, op)
		case isArrayLoadOp(op):
			err = vm.execArrayLoad(f, op)
		case isArrayStoreOp(op):
			err = vm.execArrayStore(f, op)
		case op == opPop:
			f.pop()
		case op == opPop2:
			f.pop()
			f.pop()
		case op == opDup:
			f.push(f.peek())
		case op == opDupX1:
			a, b := f.pop(), f.pop()
			f.push(a)
			f.push(b)
			f.push(a)
		case op == opDupX2:
			a, b, c := f.pop(), f.pop(), f.pop()
			f.push(a)
			f.push(c)
			f.push(b)
			f.push(a)
		case op == opDup2:
			a, b := f.pop(), f.pop()
			f.push(b)
			f.push(a)
			f.push(b)
			f.push(a)
		case op == opDup2X1:
			a, b, c := f.pop(), f.pop(), f.pop()
			f.push(b)
			f.push(a)
			f.push(c)
			f.push(b)
			f.push(a)
		case op == opDup2X2:
			a, b, c, d := f.pop(), f.pop(), f.pop(), f.pop()
			f.push(b)
			f.push(a)
			f.push(d)
			f.push(c)
			f.push(b)
			f.push(a)
		case op == opSwap:
			a, b := f.pop(), f.pop()
			f.push(a)
			f.push(b)
		case isArithmeticOp(op):
			err = execArithmetic(f, op)
		case op == opIinc:
			idx := f.u1()
			delta := f.s1()
			f.Locals[idx] = f.Locals[idx].(int64) + int64(delta)
		case op == opWide:
			execWide(f)
		case op == opTableswitch:
			execTableswitch(f)
		case op == opLookupswitch:
			execLookupswitch(f)
		case isConversionOp(op):
			execConversion(f, op)
		case isCompareOp(op):
			execCompare(f, op)
		case isIfOp(op):
			execIf(f, op)
		case op == opGoto:
			offset := f.s2()
			f.PC = f.PC - 3 + offset
		case op == opGotoW:
			offset := f.s4()
			f.PC = f.PC - 5 + offset
		case isReturnOp(op):
			vm.execReturn(th, f, op)
			return nil
		case op == opGetstatic || op == opPutstatic:
			err = vm.execStaticField(th, f, op)
		case op == opGetfield || op == opPutfield:
			err = vm.execInstanceField(f, op)
		case op == opInvokevirtual || op == opInvokespecial || op == opInvokestatic || op == opInvokeinterface:
			err = vm.execInvoke(th, f, op)
			if err == nil {
				// Either a callee frame was pushed (bytecode method — yield
				// to RunFrame so it becomes the new top of stack) or a
				// native method ran synchronously and already pushed its
				// result onto f; either way f's own loop must not continue
				// here, since RunFrame always re-fetches the current top
				// frame before resuming.
				return nil
			}
		case op == opNew:
			err = vm.execNew(th, f)
		case op == opNewarray:
			err = vm.execNewarray(f)
		case op == opAnewarray:
			err = vm.execAnewarray(f)
		case op == opMultianewarray:
			err = vm.execMultianewarray(f)
		case op == opArraylength:
			err = vm.execArraylength(f)
		case op == opAthrow:
			err = vm.execAthrow(f)
		case op == opCheckcast:
			err = vm.execCheckcast(f)
		case op == opInstanceof:
			err = vm.execInstanceof(f)
		case op == opMonitorenter:
			err = vm.execMonitorenter(th, f)
		case op == opMonitorexit:
			err = vm.execMonitorexit(th, f)
		case op == opIfnull:
			offset := f.s2()
			if id, _ := f.pop().(uint32); id == 0 {
				f.PC = f.PC - 3 + offset
			}
		case op == opIfnonnull:
			offset := f.s2()
			if id, _ := f.pop().(uint32); id != 0 {
				f.PC = f.PC - 3 + offset
			}
		default:
			err = vmerr.New("java/lang/InternalError", "unimplemented opcode 0x%02X", op)
		}

		if err != nil {
			return err
		}
	}
}

func execConst(f *Frame, op int) {
	switch op {
	case opAconstNull:
		f.push(uint32(0))
	case opIconstM1:
		f.push(int64(-1))
	case opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
		f.push(int64(op - opIconst0))
	case opLconst0, opLconst1:
		f.push(int64(op - opLconst0))
	case opFconst0, opFconst1, opFconst2:
		f.push(float64(op - opFconst0))
	case opDconst0, opDconst1:
		f.push(float64(op - opDconst0))
	}
}

func (vm *VM) execLdc(f *Frame, op int) error {
	var idx int
	if op == opLdc {
		idx = f.u1()
	} else {
		idx = f.u2()
	}
	switch e := f.CP.Get(uint16(idx)).(type) {
	case *classloader.IntegerInfo:
		f.push(int64(e.Value))
	case *classloader.FloatInfo:
		f.push(float64(e.Value))
	case *classloader.LongInfo:
		f.push(e.Value)
	case *classloader.DoubleInfo:
		f.push(e.Value)
	case *classloader.StringInfo:
		f.push(vm.Heap.InternString(f.CP.Utf8(e.StringIndex)))
	case *classloader.ClassInfo:
		cls, err := classloader.ResolveClassRef(e, f.CP, vm.Registry)
		if err != nil {
			return err
		}
		f.push(vm.Heap.ClassMirror(cls))
	default:
		return vmerr.New("java/lang/ClassFormatError", "ldc: unresolvable constant pool entry %d", idx)
	}
	return nil
}

func isLoadOp(op int) bool {
	return (op >= opIload && op <= opAload) || (op >= opIload0 && op <= opAload3)
}

func execLoad(f *Frame, op int) {
	var idx int
	switch {
	case op >= opIload && op <= opAload:
		idx = f.u1()
	default:
		base, width := loadStoreBase(op)
		idx = (op - base) % width
	}
	f.push(f.Locals[idx])
}

// loadStoreBase maps an _N-suffixed load/store opcode to the first opcode
// of its family and that family's slot-index stride (always 4: _0.._3).
func loadStoreBase(op int) (base, width int) {
	switch {
	case op >= opIload0 && op <= opIload3:
		return opIload0, 4
	case op >= opLload0 && op <= opLload3:
		return opLload0, 4
	case op >= opFload0 && op <= opFload3:
		return opFload0, 4
	case op >= opDload0 && op <= opDload3:
		return opDload0, 4
	case op >= opAload0 && op <= opAload3:
		return opAload0, 4
	case op >= opIstore0 && op <= opIstore3:
		return opIstore0, 4
	case op >= opLstore0 && op <= opLstore3:
		return opLstore0, 4
	case op >= opFstore0 && op <= opFstore3:
		return opFstore0, 4
	case op >= opDstore0 && op <= opDstore3:
		return opDstore0, 4
	case op >= opAstore0 && op <= opAstore3:
		return opAstore0, 4
	}
	return 0, 1
}

func isStoreOp(op int) bool {
	return (op >= opIstore && op <= opAstore) || (op >= opIstore0 && op <= opAstore3)
}

func execStore(f *Frame, op int) {
	var idx int
	switch {
	case op >= opIstore && op <= opAstore:
		idx = f.u1()
	default:
		base, width := loadStoreBase(op)
		idx = (op - base) % width
	}
	v := f.pop()
	for idx >= len(f.Locals) {
		f.Locals = append(f.Locals, nil)
	}
	f.Locals[idx] = v
}

func isArrayLoadOp(op int) bool  { return op >= opIaload && op <= opSaload }
func isArrayStoreOp(op int) bool { return op >= opIastore && op <= opSastore }

// asRef coerces a popped operand-stack/local value to an object
// identifier, treating both the literal zero id and a bare Go nil (the
// uninitialized-reference-slot default produced by types.DefaultValue) as
// the null reference.
func asRef(v interface{}) uint32 {
	r, _ := v.(uint32)
	return r
}

func (vm *VM) execArrayLoad(f *Frame, op int) error {
	index := f.pop().(int64)
	arrID := asRef(f.pop())
	arr, ok := vm.Heap.Get(arrID)
	if !ok {
		return vmerr.NullPointer("")
	}
	if index < 0 || int(index) >= arr.ArrayLength() {
		return vmerr.ArrayIndexOutOfBounds(int(index), arr.ArrayLength())
	}
	v := arr.GetArrayElement(int(index))
	if op == opFaload {
		v = float64(v.(float64))
	}
	f.push(v)
	return nil
}

func (vm *VM) execArrayStore(f *Frame, op int) error {
	v := f.pop()
	index := f.pop().(int64)
	arrID := asRef(f.pop())
	arr, ok := vm.Heap.Get(arrID)
	if !ok {
		return vmerr.NullPointer("")
	}
	if index < 0 || int(index) >= arr.ArrayLength() {
		return vmerr.ArrayIndexOutOfBounds(int(index), arr.ArrayLength())
	}
	arr.PutArrayElement(int(index), v)
	return nil
}

func isArithmeticOp(op int) bool { return op >= opIadd && op <= opLxor && op != opIinc }

func execArithmetic(f *Frame, op int) error {
	switch {
	case op >= opIadd && op <= opDadd, op >= opIsub && op <= opDsub,
		op >= opImul && op <= opDmul, op >= opIdiv && op <= opDdiv,
		op >= opIrem && op <= opDrem:
		return execBinaryArith(f, op)
	case op >= opIneg && op <= opDneg:
		execUnaryNeg(f, op)
	case op >= opIshl && op <= opLushr:
		execShift(f, op)
	case op >= opIand && op <= opLxor:
		execBitwise(f, op)
	}
	return nil
}

func execBinaryArith(f *Frame, op int) error {
	b := f.pop()
	a := f.pop()
	switch op {
	case opIadd:
		f.push(a.(int64) + b.(int64))
	case opLadd:
		f.push(a.(int64) + b.(int64))
	case opFadd, opDadd:
		f.push(a.(float64) + b.(float64))
	case opIsub, opLsub:
		f.push(a.(int64) - b.(int64))
	case opFsub, opDsub:
		f.push(a.(float64) - b.(float64))
	case opImul, opLmul:
		f.push(a.(int64) * b.(int64))
	case opFmul, opDmul:
		f.push(a.(float64) * b.(float64))
	case opIdiv, opLdiv:
		if b.(int64) == 0 {
			return vmerr.Arithmetic("/ by zero")
		}
		f.push(a.(int64) / b.(int64))
	case opFdiv, opDdiv:
		f.push(a.(float64) / b.(float64))
	case opIrem, opLrem:
		if b.(int64) == 0 {
			return vmerr.Arithmetic("/ by zero")
		}
		f.push(a.(int64) % b.(int64))
	case opFrem, opDrem:
		f.push(math.Mod(a.(float64), b.(float64)))
	}
	return nil
}

func execUnaryNeg(f *Frame, op int) {
	a := f.pop()
	switch op {
	case opIneg, opLneg:
		f.push(-a.(int64))
	case opFneg, opDneg:
		f.push(-a.(float64))
	}
}

func execShift(f *Frame, op int) {
	shift := f.pop().(int64)
	a := f.pop().(int64)
	switch op {
	case opIshl:
		f.push(int64(int32(a) << (uint(shift) & 31)))
	case opLshl:
		f.push(a << (uint(shift) & 63))
	case opIshr:
		f.push(int64(int32(a) >> (uint(shift) & 31)))
	case opLshr:
		f.push(a >> (uint(shift) & 63))
	case opIushr:
		f.push(int64(uint32(a) >> (uint(shift) & 31)))
	case opLushr:
		f.push(int64(uint64(a) >> (uint(shift) & 63)))
	}
}

func execBitwise(f *Frame, op int) {
	b := f.pop().(int64)
	a := f.pop().(int64)
	switch op {
	case opIand, opLand:
		f.push(a & b)
	case opIor, opLor:
		f.push(a | b)
	case opIxor, opLxor:
		f.push(a ^ b)
	}
}

func isConversionOp(op int) bool { return op >= opI2l && op <= opI2s }

func execConversion(f *Frame, op int) {
	v := f.pop()
	switch op {
	case opI2l:
		f.push(v.(int64))
	case opI2f, opI2d:
		f.push(float64(v.(int64)))
	case opL2i:
		f.push(int64(int32(v.(int64))))
	case opL2f, opL2d:
		f.push(float64(v.(int64)))
	case opF2i, opD2i:
		f.push(int64(int32(v.(float64))))
	case opF2l, opD2l:
		f.push(int64(v.(float64)))
	case opF2d:
		f.push(v.(float64))
	case opD2f:
		f.push(float64(float32(v.(float64))))
	case opI2b:
		f.push(int64(int8(v.(int64))))
	case opI2c:
		f.push(int64(uint16(v.(int64))))
	case opI2s:
		f.push(int64(int16(v.(int64))))
	}
}

func isCompareOp(op int) bool { return op >= opLcmp && op <= opDcmpg }

func execCompare(f *Frame, op int) {
	b := f.pop()
	a := f.pop()
	switch op {
	case opLcmp:
		f.push(int64(cmp(a.(int64), b.(int64))))
	case opFcmpl, opFcmpg, opDcmpl, opDcmpg:
		af, bf := a.(float64), b.(float64)
		if math.IsNaN(af) || math.IsNaN(bf) {
			if op == opFcmpg || op == opDcmpg {
				f.push(int64(1))
			} else {
				f.push(int64(-1))
			}
			return
		}
		f.push(int64(cmpFloat(af, bf)))
	}
}

func cmp(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func isIfOp(op int) bool {
	return (op >= opIfeq && op <= opIfAcmpne)
}

func execIf(f *Frame, op int) {
	offset := f.s2()
	base := f.PC - 3
	branch := false
	switch {
	case op >= opIfeq && op <= opIfle:
		v := f.pop().(int64)
		branch = ifIntCond(op-opIfeq, v, 0)
	case op >= opIfIcmpeq && op <= opIfIcmple:
		b := f.pop().(int64)
		a := f.pop().(int64)
		branch = ifIntCond(op-opIfIcmpeq, a, b)
	case op == opIfAcmpeq:
		b := f.pop()
		a := f.pop()
		branch = a == b
	case op == opIfAcmpne:
		b := f.pop()
		a := f.pop()
		branch = a != b
	}
	if branch {
		f.PC = base + offset
	}
}

// ifIntCond implements the six eq/ne/lt/ge/gt/le comparisons shared by
// if<cond> (against 0) and if_icmp<cond> (against another int), keyed by
// cond = opcode - its family's first member.
func ifIntCond(cond int, a, b int64) bool {
	switch cond {
	case 0:
		return a == b
	case 1:
		return a != b
	case 2:
		return a < b
	case 3:
		return a >= b
	case 4:
		return a > b
	case 5:
		return a <= b
	}
	return false
}

// execWide handles the wide-prefixed forms of iload/lload/fload/dload/
// aload/istore/lstore/fstore/dstore/astore/iinc, spec.md §4.5.1's "wide"
// family: every index (and, for iinc, the constant too) is 2 bytes instead
// of 1, for methods with more than 255 local variables.
func execWide(f *Frame) {
	op := f.u1()
	idx := f.u2()
	if op == opIinc {
		delta := f.s2()
		f.Locals[idx] = f.Locals[idx].(int64) + int64(delta)
		return
	}
	if isStoreOp(op) {
		v := f.pop()
		for idx >= len(f.Locals) {
			f.Locals = append(f.Locals, nil)
		}
		f.Locals[idx] = v
		return
	}
	f.push(f.Locals[idx])
}

// execTableswitch implements the dense jump-table form of switch, spec.md
// §4.5.1: padding to the next 4-byte boundary (measured from the opcode's
// own address), then default/low/high/offsets.
func execTableswitch(f *Frame) {
	opcodePC := f.PC - 1
	pad := (4 - (opcodePC+1)%4) % 4
	f.PC += pad
	def := f.s4()
	low := f.s4()
	high := f.s4()
	key := f.pop().(int64)
	if int32(key) < int32(low) || int32(key) > int32(high) {
		f.PC = opcodePC + def
		return
	}
	f.PC += int(int32(key)-int32(low)) * 4
	offset := f.s4()
	f.PC = opcodePC + offset
}

// execLookupswitch implements the sparse match/offset-pairs form of
// switch, spec.md §4.5.1.
func execLookupswitch(f *Frame) {
	opcodePC := f.PC - 1
	pad := (4 - (opcodePC+1)%4) % 4
	f.PC += pad
	def := f.s4()
	npairs := f.s4()
	key := int32(f.pop().(int64))
	for i := 0; i < npairs; i++ {
		match := f.s4()
		offset := f.s4()
		if int32(match) == key {
			f.PC = opcodePC + offset
			return
		}
	}
	f.PC = opcodePC + def
}

func isReturnOp(op int) bool { return op >= opIreturn && op <= opReturn }

func (vm *VM) execReturn(th *ExecThread, f *Frame, op int) {
	var retval interface{}
	hasValue := op != opReturn
	if hasValue {
		retval = f.pop()
	}
	PopFrame(th.Stack)
	if caller := TopFrame(th.Stack); caller != nil && hasValue {
		caller.push(retval)
	}
}
