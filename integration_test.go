/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file exercises spec.md §8's scenarios end to end, through the same
// public surface cmd/stackvm's main() uses: build a classloader.Registry,
// install gfunction's native bridge, and run jvm.StartMain against
// hand-assembled .class bytes. It lives at the module root (package
// stackvm_test) rather than inside jvm or gfunction because gfunction
// imports jvm — an in-package jvm test cannot also import gfunction
// without an import cycle.
package stackvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/gfunction"
	"github.com/brinestone/stackvm/jvm"
	"github.com/brinestone/stackvm/vmerr"
)

type mapLoader struct{ classes map[string][]byte }

func (m *mapLoader) LoadClassBytes(name string) ([]byte, error) {
	b, ok := m.classes[name]
	if !ok {
		return nil, missingClassErr(name)
	}
	return b, nil
}

type missingClassErr string

func (e missingClassErr) Error() string { return "class not found: " + string(e) }

func packU16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func packU32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func addUtf8(b []byte, s string) []byte {
	b = append(b, byte(classloader.CpUTF8))
	b = append(b, packU16(uint16(len(s)))...)
	return append(b, []byte(s)...)
}

func addClass(b []byte, nameIdx uint16) []byte {
	b = append(b, byte(classloader.CpClass))
	return append(b, packU16(nameIdx)...)
}

// buildObjectClass hand-assembles a minimal java/lang/Object: no fields,
// no methods, no superclass.
func buildObjectClass(t *testing.T) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	b = append(b, packU16(3)...) // constant_pool_count: #1 Utf8, #2 Class
	b = addUtf8(b, "java/lang/Object")
	b = addClass(b, 1)

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(0)...)      // super_class
	b = append(b, packU16(0)...)      // interfaces
	b = append(b, packU16(0)...)      // fields
	b = append(b, packU16(0)...)      // methods
	b = append(b, packU16(0)...)      // attributes
	return b
}

// buildSystemClass hand-assembles a java/lang/System stand-in carrying one
// native static method, currentTimeMillis()J, matching the real JDK class's
// shape closely enough to exercise gfunction's native bridge end to end.
func buildSystemClass(t *testing.T) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	// #1 Utf8 this, #2 Class this, #3 Utf8 super, #4 Class super,
	// #5 Utf8 "currentTimeMillis", #6 Utf8 "()J"
	b = append(b, packU16(7)...)
	b = addUtf8(b, "java/lang/System")
	b = addClass(b, 1)
	b = addUtf8(b, "java/lang/Object")
	b = addClass(b, 3)
	b = addUtf8(b, "currentTimeMillis")
	b = addUtf8(b, "()J")

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(4)...)      // super_class
	b = append(b, packU16(0)...)      // interfaces
	b = append(b, packU16(0)...)      // fields

	b = append(b, packU16(1)...)      // methods_count
	b = append(b, packU16(0x0109)...) // ACC_PUBLIC|ACC_STATIC|ACC_NATIVE
	b = append(b, packU16(5)...)      // name_index
	b = append(b, packU16(6)...)      // descriptor_index
	b = append(b, packU16(0)...)      // attributes_count (no Code: native)

	b = append(b, packU16(0)...) // class attributes_count
	return b
}

// buildMainClass hand-assembles:
//
//	public static void main(String[] args) {
//	    iconst_0; istore_1          // sum = 0
//	    iconst_1; istore_2          // i = 1
//	    loop: iload_2; iconst_5; if_icmpgt end
//	          iload_1; iload_2; iadd; istore_1
//	          iinc 2, 1
//	          goto loop
//	    end:  invokestatic System.currentTimeMillis()J; pop
//	          return
func buildMainClass(t *testing.T, thisName string) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	// #1 Utf8 this, #2 Class this, #3 Utf8 super, #4 Class super,
	// #5 Utf8 "main", #6 Utf8 "([Ljava/lang/String;)V", #7 Utf8 "Code",
	// #8 Utf8 "java/lang/System", #9 Class #8,
	// #10 Utf8 "currentTimeMillis", #11 Utf8 "()J",
	// #12 NameAndType(#10,#11), #13 Methodref(#9,#12)
	b = append(b, packU16(14)...)
	b = addUtf8(b, thisName)
	b = addClass(b, 1)
	b = addUtf8(b, "java/lang/Object")
	b = addClass(b, 3)
	b = addUtf8(b, "main")
	b = addUtf8(b, "([Ljava/lang/String;)V")
	b = addUtf8(b, "Code")
	b = addUtf8(b, "java/lang/System")
	b = addClass(b, 8)
	b = addUtf8(b, "currentTimeMillis")
	b = addUtf8(b, "()J")
	b = append(b, byte(classloader.CpNameAndType))
	b = append(b, packU16(10)...)
	b = append(b, packU16(11)...)
	b = append(b, byte(classloader.CpMethodref))
	b = append(b, packU16(9)...)
	b = append(b, packU16(12)...)

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(4)...)      // super_class
	b = append(b, packU16(0)...)      // interfaces
	b = append(b, packU16(0)...)      // fields

	b = append(b, packU16(1)...)      // methods_count
	b = append(b, packU16(0x0009)...) // ACC_PUBLIC|ACC_STATIC
	b = append(b, packU16(5)...)      // name_index: main
	b = append(b, packU16(6)...)      // descriptor_index
	b = append(b, packU16(1)...)      // attributes_count: Code
	b = append(b, packU16(7)...)      // attribute_name_index: Code

	code := []byte{
		0x03, 0x3C, // 0,1: iconst_0, istore_1
		0x04, 0x3D, // 2,3: iconst_1, istore_2
		0x1C, 0x08, 0xA3, 0x00, 0x0D, // 4,5,6-8: iload_2, iconst_5, if_icmpgt +13 (-> 19)
		0x1B, 0x1C, 0x60, 0x3C, // 9,10,11,12: iload_1, iload_2, iadd, istore_1
		0x84, 0x02, 0x01, // 13-15: iinc 2, 1
		0xA7, 0xFF, 0xF4, // 16-18: goto -12 (-> 4)
		0xB8, 0x00, 0x0D, // 19-21: invokestatic #13
		0x57, // 22: pop
		0xB1, // 23: return
	}
	var codeAttr []byte
	codeAttr = append(codeAttr, packU16(2)...) // max_stack
	codeAttr = append(codeAttr, packU16(3)...) // max_locals
	codeAttr = append(codeAttr, packU32(uint32(len(code)))...)
	codeAttr = append(codeAttr, code...)
	codeAttr = append(codeAttr, packU16(0)...) // exception_table_length
	codeAttr = append(codeAttr, packU16(0)...) // attributes_count
	b = append(b, packU32(uint32(len(codeAttr)))...)
	b = append(b, codeAttr...)

	b = append(b, packU16(0)...) // class attributes_count
	return b
}

func TestEndToEndArithmeticAndNativeCall(t *testing.T) {
	cl := &classloader.Classloader{Name: "test"}
	reg := classloader.NewRegistry(cl)
	cl.Loaders = append(cl.Loaders, &mapLoader{classes: map[string][]byte{
		"java/lang/Object": buildObjectClass(t),
		"java/lang/System": buildSystemClass(t),
		"com/example/Main": buildMainClass(t, "com/example/Main"),
	}})

	vm := jvm.NewVM(reg)
	gfunction.Install(vm.Heap, reg)

	err := jvm.StartMain(vm, "com/example/Main", nil)
	require.NoError(t, err)
	assert.Equal(t, "main", jvm.MainThread.Name)
}

// buildArrayBoundsClass hand-assembles:
//
//	public static void main(String[] args) {
//	    iconst_2; newarray int; astore_1   // int[] a = new int[2]
//	    try {
//	        aload_1; bipush 5; iaload; pop  // a[5] -- always out of bounds
//	    } catch (Throwable t) {             // catch_type 0: any throwable
//	        pop                             // discard the caught instance
//	    }
//	    return
//
// catchAll selects whether the Code attribute carries the catch-all handler;
// with it omitted the same out-of-bounds access propagates uncaught.
func buildArrayBoundsClass(t *testing.T, catchAll bool) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	// #1 Utf8 this, #2 Class this, #3 Utf8 super, #4 Class super,
	// #5 Utf8 "main", #6 Utf8 "([Ljava/lang/String;)V", #7 Utf8 "Code"
	b = append(b, packU16(8)...)
	b = addUtf8(b, "com/example/Bounds")
	b = addClass(b, 1)
	b = addUtf8(b, "java/lang/Object")
	b = addClass(b, 3)
	b = addUtf8(b, "main")
	b = addUtf8(b, "([Ljava/lang/String;)V")
	b = addUtf8(b, "Code")

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(4)...)      // super_class
	b = append(b, packU16(0)...)      // interfaces
	b = append(b, packU16(0)...)      // fields

	b = append(b, packU16(1)...)      // methods_count
	b = append(b, packU16(0x0009)...) // ACC_PUBLIC|ACC_STATIC
	b = append(b, packU16(5)...)      // name_index: main
	b = append(b, packU16(6)...)      // descriptor_index
	b = append(b, packU16(1)...)      // attributes_count: Code
	b = append(b, packU16(7)...)      // attribute_name_index: Code

	code := []byte{
		0x05, 0xBC, 0x0A, 0x4C, // 0-3: iconst_2, newarray int, astore_1
		0x2B, 0x10, 0x05, 0x2E, 0x57, // 4,5-6,7,8: aload_1, bipush 5, iaload, pop
		0x57, // 9: pop (handler target, catchAll case)
		0xB1, // 10: return
	}
	var codeAttr []byte
	codeAttr = append(codeAttr, packU16(2)...) // max_stack
	codeAttr = append(codeAttr, packU16(2)...) // max_locals
	codeAttr = append(codeAttr, packU32(uint32(len(code)))...)
	codeAttr = append(codeAttr, code...)
	if catchAll {
		codeAttr = append(codeAttr, packU16(1)...) // exception_table_length
		codeAttr = append(codeAttr, packU16(4)...) // start_pc: aload_1 at 4
		codeAttr = append(codeAttr, packU16(9)...) // end_pc: exclusive, covers 4..8
		codeAttr = append(codeAttr, packU16(9)...) // handler_pc: the pop at 9
		codeAttr = append(codeAttr, packU16(0)...) // catch_type: any throwable
	} else {
		codeAttr = append(codeAttr, packU16(0)...) // exception_table_length
	}
	codeAttr = append(codeAttr, packU16(0)...) // attributes_count
	b = append(b, packU32(uint32(len(codeAttr)))...)
	b = append(b, codeAttr...)

	b = append(b, packU16(0)...) // class attributes_count
	return b
}

func TestEndToEndArrayIndexOutOfBoundsCaught(t *testing.T) {
	cl := &classloader.Classloader{Name: "test"}
	reg := classloader.NewRegistry(cl)
	cl.Loaders = append(cl.Loaders, &mapLoader{classes: map[string][]byte{
		"java/lang/Object":   buildObjectClass(t),
		"com/example/Bounds": buildArrayBoundsClass(t, true),
	}})

	vm := jvm.NewVM(reg)
	gfunction.Install(vm.Heap, reg)

	err := jvm.StartMain(vm, "com/example/Bounds", nil)
	assert.NoError(t, err, "the catch-all handler should have swallowed the out-of-bounds access")
}

func TestEndToEndArrayIndexOutOfBoundsUncaught(t *testing.T) {
	cl := &classloader.Classloader{Name: "test"}
	reg := classloader.NewRegistry(cl)
	cl.Loaders = append(cl.Loaders, &mapLoader{classes: map[string][]byte{
		"java/lang/Object":   buildObjectClass(t),
		"com/example/Bounds": buildArrayBoundsClass(t, false),
	}})

	vm := jvm.NewVM(reg)
	gfunction.Install(vm.Heap, reg)

	err := jvm.StartMain(vm, "com/example/Bounds", nil)
	require.Error(t, err)
	vmx := vmerr.AsVMException(err)
	assert.Equal(t, "java/lang/ArrayIndexOutOfBoundsException", vmx.ClassName)
}
