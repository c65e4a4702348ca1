/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements spec.md §4.4.1: linking a decoded ParsedClass into a
// runtime Class — resolving its superclass and interfaces (eagerly, since
// they are needed to build the field layout and vtable), computing field
// layout and the vtable, and seeding the constant pool's this_class
// ClassInfo entry with the class itself (spec.md §9's "eager this-class, lazy
// cross-class" resolution policy).
package classloader

import (
	"github.com/brinestone/stackvm/vmerr"
)

// Resolver is the minimal capability linker.go needs from the class
// registry: fetch-or-load a class by binary name. Implemented by
// *Registry (registry.go); passed as an interface here so this file has no
// dependency on how classes are actually sourced (disk, jar, bootstrap).
type Resolver interface {
	ResolveClass(name string) (*Class, error)
}

// DefineClass links pc into a runtime Class, per spec.md §4.4.1. name is
// the binary name the loader used to locate pc (checked against pc's own
// this-class entry by the caller, registry.go).
func DefineClass(name string, pc *ParsedClass, resolver Resolver) (*Class, error) {
	cls := newClass(name)
	cls.AccessFlags = pc.AccessFlags
	cls.CP = pc.CP

	for _, a := range pc.Attributes {
		if a.Name == "SourceFile" && len(a.Info) >= 2 {
			idx := uint16(a.Info[0])<<8 | uint16(a.Info[1])
			cls.SourceFile = pc.CP.Utf8(idx)
		}
	}

	if pc.SuperClass != 0 {
		superName := pc.CP.ClassName(pc.SuperClass)
		super, err := resolver.ResolveClass(superName)
		if err != nil {
			return nil, vmerr.NoClassDefFound(superName)
		}
		cls.Super = super
	} else if name != "java/lang/Object" {
		return nil, vmerr.New("java/lang/ClassFormatError", "%s: only java/lang/Object may have no superclass", name)
	}

	for _, ifaceIdx := range pc.Interfaces {
		ifaceName := pc.CP.ClassName(ifaceIdx)
		iface, err := resolver.ResolveClass(ifaceName)
		if err != nil {
			return nil, vmerr.NoClassDefFound(ifaceName)
		}
		cls.Interfaces = append(cls.Interfaces, iface)
	}

	if err := buildFieldLayout(cls, pc); err != nil {
		return nil, err
	}

	for _, pm := range pc.Methods {
		m := &Method{
			Name:        pc.CP.Utf8(pm.NameIndex),
			Descriptor:  pc.CP.Utf8(pm.DescriptorIndex),
			AccessFlags: pm.AccessFlags,
			Code:        pm.Code,
			OwnerClass:  cls,
			VtableSlot:  -1,
		}
		cls.Methods = append(cls.Methods, m)
		cls.MethodIndex[m.Name+"#"+m.Descriptor] = m
	}

	buildVtable(cls)

	// spec.md §3.6/§9: seed this-class's own ClassInfo resolution cell
	// eagerly, since the linker already has the *Class in hand and every
	// self-referential ldc/checkcast/instanceof in this class's own code
	// will ask for it immediately.
	if thisInfo, ok := pc.CP.Get(pc.ThisClass).(*ClassInfo); ok {
		thisInfo.resolveOnce.Do(func() {
			thisInfo.resolved = cls
		})
	}

	return cls, nil
}

// ResolveClassRef resolves (and caches) a CONSTANT_Class entry, per spec.md
// §3.6's lazy cross-class policy: the first caller to dereference a given
// ClassInfo pays the resolution cost, every later caller observes the
// cached *Class or cached error through the same sync.Once.
func ResolveClassRef(ci *ClassInfo, cp *ConstantPool, resolver Resolver) (*Class, error) {
	ci.resolveOnce.Do(func() {
		name := cp.Utf8(ci.NameIndex)
		cls, err := resolver.ResolveClass(name)
		if err != nil {
			ci.resolveErr = vmerr.NoClassDefFound(name)
			return
		}
		ci.resolved = cls
	})
	return ci.resolved, ci.resolveErr
}

// ResolveFieldRef resolves a CONSTANT_Fieldref (or throws NoSuchFieldError),
// walking the owning class and its superclass chain as spec.md §4.4.1's
// field-resolution search order requires: declared-here first, then each
// superclass in turn.
func ResolveFieldRef(fr *FieldrefInfo, cp *ConstantPool, resolver Resolver) (*FieldResolution, error) {
	fr.resolveOnce.Do(func() {
		className := cp.ClassName(fr.ClassIndex)
		fieldName, descriptor := cp.NameAndType(fr.NameAndTypeIndex)

		owner, err := resolver.ResolveClass(className)
		if err != nil {
			fr.resolveErr = vmerr.NoClassDefFound(className)
			return
		}

		for c := owner; c != nil; c = c.Super {
			for _, f := range c.InstanceFields {
				if f.Name == fieldName && f.Descriptor == descriptor {
					fr.resolved = &FieldResolution{OwnerClass: c, Slot: f.Slot, Descriptor: descriptor, IsStatic: false}
					return
				}
			}
			for _, f := range c.StaticFields {
				if f.Name == fieldName && f.Descriptor == descriptor {
					fr.resolved = &FieldResolution{OwnerClass: c, Slot: f.Slot, Descriptor: descriptor, IsStatic: true}
					return
				}
			}
		}
		fr.resolveErr = vmerr.NoSuchField(className, fieldName)
	})
	return fr.resolved, fr.resolveErr
}

// resolveMethodrefCommon is shared by Methodref and InterfaceMethodref
// resolution: find the named method by walking the owning class's
// superclass chain and, failing that, its implemented interfaces.
func resolveMethodrefCommon(className, methodName, descriptor string, resolver Resolver) (*MethodResolution, error) {
	owner, err := resolver.ResolveClass(className)
	if err != nil {
		return nil, vmerr.NoClassDefFound(className)
	}

	for c := owner; c != nil; c = c.Super {
		if m := c.FindMethod(methodName, descriptor); m != nil {
			slot := -1
			if !m.IsStatic() && !m.IsPrivate() && !m.IsFinal() && methodName != "<init>" {
				slot = m.VtableSlot
			}
			return &MethodResolution{OwnerClass: owner, Method: m, VtableSlot: slot}, nil
		}
	}
	for _, iface := range allInterfacesOf(owner) {
		if m := iface.FindMethod(methodName, descriptor); m != nil {
			slot := -1
			if !m.IsStatic() {
				// m is iface.Methods[j], shared by every class implementing
				// iface, so its own VtableSlot is never meaningful (it's
				// only assigned, per-class, on the bound copy buildVtable's
				// rule 5 appends to owner.Vtable). Look the slot up there
				// instead of trusting m's own field.
				if bound := owner.FindVtableMethod(methodName, descriptor); bound != nil {
					slot = bound.VtableSlot
				}
			}
			return &MethodResolution{OwnerClass: owner, Method: m, VtableSlot: slot}, nil
		}
	}
	return nil, vmerr.NoSuchMethod(className, methodName, descriptor)
}

func allInterfacesOf(cls *Class) []*Class {
	var out []*Class
	seen := map[string]bool{}
	var walk func(*Class)
	walk = func(c *Class) {
		if c == nil {
			return
		}
		for _, i := range c.Interfaces {
			if !seen[i.Name] {
				seen[i.Name] = true
				out = append(out, i)
				walk(i)
			}
		}
		walk(c.Super)
	}
	walk(cls)
	return out
}

func (fr *MethodrefInfo) Resolve(cp *ConstantPool, resolver Resolver) (*MethodResolution, error) {
	fr.resolveOnce.Do(func() {
		className := cp.ClassName(fr.ClassIndex)
		name, descriptor := cp.NameAndType(fr.NameAndTypeIndex)
		fr.resolved, fr.resolveErr = resolveMethodrefCommon(className, name, descriptor, resolver)
	})
	return fr.resolved, fr.resolveErr
}

func (fr *InterfaceMethodrefInfo) Resolve(cp *ConstantPool, resolver Resolver) (*MethodResolution, error) {
	fr.resolveOnce.Do(func() {
		className := cp.ClassName(fr.ClassIndex)
		name, descriptor := cp.NameAndType(fr.NameAndTypeIndex)
		fr.resolved, fr.resolveErr = resolveMethodrefCommon(className, name, descriptor, resolver)
	})
	return fr.resolved, fr.resolveErr
}
