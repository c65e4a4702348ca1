/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver resolves against a fixed in-memory map, letting linker.go's
// tests stay independent of the registry's loader machinery.
type stubResolver struct {
	classes map[string]*Class
}

func (s *stubResolver) ResolveClass(name string) (*Class, error) {
	if c, ok := s.classes[name]; ok {
		return c, nil
	}
	return nil, assertNoClassDefFound(name)
}

func assertNoClassDefFound(name string) error {
	return &classNotFoundStub{name}
}

type classNotFoundStub struct{ name string }

func (e *classNotFoundStub) Error() string { return "class not found: " + e.name }

func objectClass() *Class {
	c := newClass("java/lang/Object")
	c.AccessFlags = AccPublic
	c.MethodIndex = map[string]*Method{}
	toStr := &Method{Name: "toString", Descriptor: "()Ljava/lang/String;", AccessFlags: AccPublic, OwnerClass: c, VtableSlot: -1}
	c.Methods = append(c.Methods, toStr)
	c.MethodIndex["toString#()Ljava/lang/String;"] = toStr
	buildVtable(c)
	c.state = int32(Initialized)
	return c
}

// buildParsedClassWithField constructs a ParsedClass declaring one
// instance int field named "x" and overriding toString(), superclass
// java/lang/Object.
func buildParsedClassWithField(t *testing.T, name string) *ParsedClass {
	t.Helper()
	raw := buildClassWithOneField(t, name, "java/lang/Object", "x", "I")
	pc, err := Decode(raw)
	require.NoError(t, err)
	return pc
}

// buildClassWithOneField hand-assembles a class file with exactly one
// instance field and one method (toString, with an empty Code attribute),
// reusing buildMinimalClass's constant-pool layout convention.
func buildClassWithOneField(t *testing.T, thisName, superName, fieldName, fieldDesc string) []byte {
	t.Helper()
	var b []byte
	b = append(b, 0xCA, 0xFE, 0xBA, 0xBE)
	b = append(b, packU16(0)...)
	b = append(b, packU16(61)...)

	// #1 Utf8 this, #2 Class this, #3 Utf8 super, #4 Class super,
	// #5 Utf8 fieldName, #6 Utf8 fieldDesc, #7 Utf8 "toString",
	// #8 Utf8 "()Ljava/lang/String;", #9 Utf8 "Code"
	b = append(b, packU16(10)...)

	addUtf8 := func(s string) {
		b = append(b, byte(CpUTF8))
		b = append(b, packU16(uint16(len(s)))...)
		b = append(b, []byte(s)...)
	}
	addClass := func(nameIdx uint16) {
		b = append(b, byte(CpClass))
		b = append(b, packU16(nameIdx)...)
	}

	addUtf8(thisName)          // #1
	addClass(1)                // #2
	addUtf8(superName)         // #3
	addClass(3)                // #4
	addUtf8(fieldName)         // #5
	addUtf8(fieldDesc)         // #6
	addUtf8("toString")        // #7
	addUtf8("()Ljava/lang/String;") // #8
	addUtf8("Code")            // #9

	b = append(b, packU16(0x0021)...) // access flags
	b = append(b, packU16(2)...)      // this_class
	b = append(b, packU16(4)...)      // super_class
	b = append(b, packU16(0)...)      // interfaces_count

	// fields_count = 1
	b = append(b, packU16(1)...)
	b = append(b, packU16(0x0001)...) // ACC_PUBLIC
	b = append(b, packU16(5)...)      // name_index
	b = append(b, packU16(6)...)      // descriptor_index
	b = append(b, packU16(0)...)      // attributes_count

	// methods_count = 1
	b = append(b, packU16(1)...)
	b = append(b, packU16(0x0001)...) // ACC_PUBLIC
	b = append(b, packU16(7)...)      // name_index: toString
	b = append(b, packU16(8)...)      // descriptor_index
	b = append(b, packU16(1)...)      // attributes_count: Code
	b = append(b, packU16(9)...)      // attribute_name_index: Code

	// Code attribute body: max_stack, max_locals, code_length, code,
	// exception_table_length, attributes_count
	var code []byte
	code = append(code, packU16(1)...) // max_stack
	code = append(code, packU16(1)...) // max_locals
	codeBytes := []byte{0xB1}          // return (placeholder opcode)
	code = append(code, packU32(uint32(len(codeBytes)))...)
	code = append(code, codeBytes...)
	code = append(code, packU16(0)...) // exception_table_length
	code = append(code, packU16(0)...) // attributes_count
	b = append(b, packU32(uint32(len(code)))...)
	b = append(b, code...)

	// class attributes_count = 0
	b = append(b, packU16(0)...)

	return b
}

func TestDefineClassBuildsFieldLayoutAndVtable(t *testing.T) {
	object := objectClass()
	resolver := &stubResolver{classes: map[string]*Class{"java/lang/Object": object}}

	pc := buildParsedClassWithField(t, "com/example/Point")
	cls, err := DefineClass("com/example/Point", pc, resolver)
	require.NoError(t, err)

	assert.Equal(t, object, cls.Super)
	require.Len(t, cls.InstanceFields, 1)
	assert.Equal(t, "x", cls.InstanceFields[0].Name)
	assert.Equal(t, 0, cls.InstanceFields[0].Slot)
	assert.Equal(t, 1, cls.InstanceSlots)

	// toString overrides Object's slot 0, not a new entry.
	assert.Len(t, cls.Vtable, 1)
	assert.Same(t, cls.FindMethod("toString", "()Ljava/lang/String;"), cls.Vtable[0])
}

func TestResolveFieldRefFindsDeclaredField(t *testing.T) {
	object := objectClass()
	resolver := &stubResolver{classes: map[string]*Class{"java/lang/Object": object}}
	pc := buildParsedClassWithField(t, "com/example/Point")
	cls, err := DefineClass("com/example/Point", pc, resolver)
	require.NoError(t, err)
	resolver.classes["com/example/Point"] = cls

	// build a throwaway CP just for this Fieldref's lookup: index1 is the
	// ClassInfo (name at index2), index5 is the NameAndType (name at
	// index3, descriptor at index4).
	cp := &ConstantPool{Entries: []CpInfo{
		&DummyInfo{},
		&ClassInfo{NameIndex: 2},
		&Utf8Info{Value: "com/example/Point"},
		&Utf8Info{Value: "x"},
		&Utf8Info{Value: "I"},
		&NameAndTypeInfo{NameIndex: 3, DescriptorIndex: 4},
	}}
	fr := &FieldrefInfo{ClassIndex: 1, NameAndTypeIndex: 5}

	res, err := ResolveFieldRef(fr, cp, resolver)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Slot)
	assert.False(t, res.IsStatic)
}

func TestIsSameOrSubClassOf(t *testing.T) {
	object := objectClass()
	resolver := &stubResolver{classes: map[string]*Class{"java/lang/Object": object}}
	pc := buildParsedClassWithField(t, "com/example/Point")
	cls, err := DefineClass("com/example/Point", pc, resolver)
	require.NoError(t, err)

	assert.True(t, IsSameOrSubClassOf(cls, object))
	assert.False(t, IsSameOrSubClassOf(object, cls))
	assert.True(t, IsSameOrSubClassOf(cls, cls))
}
