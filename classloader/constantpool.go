/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "sync"

// CpTag is the one-byte constant-pool entry tag, spec.md §3.5 / §4.1.
type CpTag byte

const (
	CpDummy              CpTag = 0 // sentinel: index 0, and the slot after a long/double
	CpUTF8                    = 1
	CpInteger                 = 3
	CpFloat                   = 4
	CpLong                    = 5
	CpDouble                  = 6
	CpClass                   = 7
	CpString                  = 8
	CpFieldref                = 9
	CpMethodref               = 10
	CpInterfaceMethodref      = 11
	CpNameAndType             = 12
	CpMethodHandle            = 15
	CpMethodType              = 16
	CpDynamic                 = 17
	CpInvokeDynamic           = 18
	CpModule                  = 19
	CpPackage                 = 20
)

// CpInfo is implemented by every constant-pool entry variant. Tag lets
// generic code (the decoder's bounds/type checks, CP dumpers) branch
// without a type switch.
type CpInfo interface {
	Tag() CpTag
}

type DummyInfo struct{}

func (*DummyInfo) Tag() CpTag { return CpDummy }

type Utf8Info struct{ Value string }

func (*Utf8Info) Tag() CpTag { return CpUTF8 }

type IntegerInfo struct{ Value int32 }

func (*IntegerInfo) Tag() CpTag { return CpInteger }

type FloatInfo struct{ Value float32 }

func (*FloatInfo) Tag() CpTag { return CpFloat }

type LongInfo struct{ Value int64 }

func (*LongInfo) Tag() CpTag { return CpLong }

type DoubleInfo struct{ Value float64 }

func (*DoubleInfo) Tag() CpTag { return CpDouble }

// ClassInfo is a class reference; Resolved is the once-initialized
// resolution cell of spec.md §3.5/§3.6 — set eagerly for this-class
// references during define_class, lazily on first use otherwise (design
// note §9's "pragmatic middle").
type ClassInfo struct {
	NameIndex uint16
	resolveOnce sync.Once
	resolved    *Class
	resolveErr  error
}

func (*ClassInfo) Tag() CpTag { return CpClass }

type StringInfo struct{ StringIndex uint16 }

func (*StringInfo) Tag() CpTag { return CpString }

// FieldResolution is the cached field-resolution cell of spec.md §3.6: the
// class that declares the field plus its slot index. ResolveFieldRef always
// sets OwnerClass, whether the field is declared in the referencing class
// or in another one.
type FieldResolution struct {
	OwnerClass *Class
	Slot       int
	Descriptor string
	IsStatic   bool
}

type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	resolveOnce      sync.Once
	resolved         *FieldResolution
	resolveErr       error
}

func (*FieldrefInfo) Tag() CpTag { return CpFieldref }

// MethodResolution is the cached method-resolution cell of spec.md §3.7:
// resolved (class, method) pair plus a signed vtable index, −1 when the
// call is statically dispatched (private/final/constructor/static).
type MethodResolution struct {
	OwnerClass *Class
	Method     *Method
	VtableSlot int // -1 if statically dispatched
}

type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	resolveOnce      sync.Once
	resolved         *MethodResolution
	resolveErr       error
}

func (*MethodrefInfo) Tag() CpTag { return CpMethodref }

type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	resolveOnce      sync.Once
	resolved         *MethodResolution
	resolveErr       error
}

func (*InterfaceMethodrefInfo) Tag() CpTag { return CpInterfaceMethodref }

type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (*NameAndTypeInfo) Tag() CpTag { return CpNameAndType }

type MethodHandleInfo struct {
	RefKind  byte
	RefIndex uint16
}

func (*MethodHandleInfo) Tag() CpTag { return CpMethodHandle }

type MethodTypeInfo struct{ DescriptorIndex uint16 }

func (*MethodTypeInfo) Tag() CpTag { return CpMethodType }

type DynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (*DynamicInfo) Tag() CpTag { return CpDynamic }

type InvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (*InvokeDynamicInfo) Tag() CpTag { return CpInvokeDynamic }

type ModuleInfo struct{ NameIndex uint16 }

func (*ModuleInfo) Tag() CpTag { return CpModule }

type PackageInfo struct{ NameIndex uint16 }

func (*PackageInfo) Tag() CpTag { return CpPackage }

// ConstantPool is the 1-based, post-decode constant pool of spec.md §3.5.
// Entries[0] is always a *DummyInfo; a long/double at index i leaves a
// *DummyInfo sentinel at i+1, per the decoder invariant.
type ConstantPool struct {
	Entries []CpInfo
}

// Get returns the entry at the given 1-based index, or nil if out of
// range.
func (cp *ConstantPool) Get(index uint16) CpInfo {
	if int(index) <= 0 || int(index) >= len(cp.Entries) {
		return nil
	}
	return cp.Entries[index]
}

// Utf8 returns the UTF-8 string at index, or "" if index does not name a
// UTF8 entry.
func (cp *ConstantPool) Utf8(index uint16) string {
	if u, ok := cp.Get(index).(*Utf8Info); ok {
		return u.Value
	}
	return ""
}

// ClassName resolves a CONSTANT_Class entry's name index to its UTF8
// string, without triggering class resolution.
func (cp *ConstantPool) ClassName(index uint16) string {
	if c, ok := cp.Get(index).(*ClassInfo); ok {
		return cp.Utf8(c.NameIndex)
	}
	return ""
}

// NameAndType returns the (name, descriptor) strings for a
// CONSTANT_NameAndType entry.
func (cp *ConstantPool) NameAndType(index uint16) (name, descriptor string) {
	if nt, ok := cp.Get(index).(*NameAndTypeInfo); ok {
		return cp.Utf8(nt.NameIndex), cp.Utf8(nt.DescriptorIndex)
	}
	return "", ""
}
