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

// mapLoader is a minimal classloader.ModuleLoader backed by an in-memory
// binaryName->bytes map, the same hand-assembled-raw-class-bytes technique
// classloader's own decoder_test.go/linker_test.go use, scoped here to
// exercise jvm.StartMain's public entry point against a real Registry
// instead of a stub resolver.
type mapLoader struct{ classes map[string][]byte }

func (m *mapLoader) LoadClassBytes(name string) ([]byte, error) {
	b, ok := m.classes[name]
	if !ok {
		return nil, assertMissing(name)
	}
	return b, nil
}

type missingClassErr string

func (e missingClassErr) Error() string { return "class not found: " + string(e) }
func assertMissing(name string) error   { return missingClassErr(name) }

func packU16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func packU32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// buildObjectClass hand-assembles a minimal java/lang/Object with no fields
// or methods, enough to terminate every superclass chain.
func buildObjectClass(t *testing.T) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	b = append(b, packU16(3)...) // constant_pool_count: #1 Utf8 "java/lang/Object", #2 Class #1
	b = append(b, byte(classloader.CpUTF8))
	name := "java/lang/Object"
	b = append(b, packU16(uint16(len(name)))...)
	b = append(b, []byte(name)...)
	b = append(b, byte(classloader.CpClass))
	b = append(b, packU16(1)...)

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(0)...)      // super_class: none
	b = append(b, packU16(0)...)      // interfaces
	b = append(b, packU16(0)...)      // fields
	b = append(b, packU16(0)...)      // methods
	b = append(b, packU16(0)...)      // attributes
	return b
}

// buildMainClass hand-assembles a class declaring
// public static void main(String[] args) { return; }, superclass
// java/lang/Object, with a trivial one-instruction Code attribute.
func buildMainClass(t *testing.T, thisName string) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	// #1 Utf8 this, #2 Class this, #3 Utf8 super, #4 Class super,
	// #5 Utf8 "main", #6 Utf8 "([Ljava/lang/String;)V", #7 Utf8 "Code"
	b = append(b, packU16(8)...)

	addUtf8 := func(s string) {
		b = append(b, byte(classloader.CpUTF8))
		b = append(b, packU16(uint16(len(s)))...)
		b = append(b, []byte(s)...)
	}
	addClass := func(nameIdx uint16) {
		b = append(b, byte(classloader.CpClass))
		b = append(b, packU16(nameIdx)...)
	}

	addUtf8(thisName)
	addClass(1)
	addUtf8("java/lang/Object")
	addClass(3)
	addUtf8("main")
	addUtf8(mainDescriptor)
	addUtf8("Code")

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

	var code []byte
	code = append(code, packU16(1)...) // max_stack
	code = append(code, packU16(1)...) // max_locals
	codeBytes := []byte{0xB1}          // return
	code = append(code, packU32(uint32(len(codeBytes)))...)
	code = append(code, codeBytes...)
	code = append(code, packU16(0)...) // exception_table_length
	code = append(code, packU16(0)...) // attributes_count
	b = append(b, packU32(uint32(len(code)))...)
	b = append(b, code...)

	b = append(b, packU16(0)...) // class attributes_count
	return b
}

func TestStartMainRunsToCompletion(t *testing.T) {
	cl := &classloader.Classloader{Name: "test"}
	reg := classloader.NewRegistry(cl)
	cl.Loaders = append(cl.Loaders, &mapLoader{classes: map[string][]byte{
		"java/lang/Object": buildObjectClass(t),
		"com/example/Main": buildMainClass(t, "com/example/Main"),
	}})

	vm := NewVM(reg)
	err := StartMain(vm, "com/example/Main", []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, "main", MainThread.Name)
	assert.Equal(t, []string{"hello"}, MainThread.AppArgs)
}

func TestStartMainMissingMainMethod(t *testing.T) {
	cl := &classloader.Classloader{Name: "test"}
	reg := classloader.NewRegistry(cl)
	cl.Loaders = append(cl.Loaders, &mapLoader{classes: map[string][]byte{
		"java/lang/Object": buildObjectClass(t),
		"com/example/Empty": buildObjectClassNamed(t, "com/example/Empty"),
	}})

	vm := NewVM(reg)
	err := StartMain(vm, "com/example/Empty", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchMethodError")
}

// buildObjectClassNamed is buildObjectClass generalized to an arbitrary
// this-class name, superclass pinned to java/lang/Object.
func buildObjectClassNamed(t *testing.T, thisName string) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	b = append(b, packU16(5)...) // constant_pool_count: #1-#4 as below
	addUtf8 := func(s string) {
		b = append(b, byte(classloader.CpUTF8))
		b = append(b, packU16(uint16(len(s)))...)
		b = append(b, []byte(s)...)
	}
	addClass := func(nameIdx uint16) {
		b = append(b, byte(classloader.CpClass))
		b = append(b, packU16(nameIdx)...)
	}
	addUtf8(thisName)
	addClass(1)
	addUtf8("java/lang/Object")
	addClass(3)

	b = append(b, packU16(0x0021)...)
	b = append(b, packU16(2)...)
	b = append(b, packU16(4)...)
	b = append(b, packU16(0)...)
	b = append(b, packU16(0)...)
	b = append(b, packU16(0)...)
	b = append(b, packU16(0)...)
	return b
}
