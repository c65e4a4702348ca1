/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements spec.md §4.4.3: virtual-method-table construction,
// the five ordered rules that let invokevirtual dispatch through a single
// integer index instead of walking the superclass chain at call time.
package classloader

import "path"

// buildVtable assigns cls.Vtable and each eligible method's VtableSlot,
// applying the five rules in order:
//  1. copy the superclass's vtable verbatim (slot numbers are preserved
//     across the hierarchy so an overriding method keeps its parent's slot)
//  2. stop here if cls is an interface (interfaces do not carry a vtable
//     of their own — only classes implementing them do)
//  3. for each of cls's own non-static, non-private, non-init methods,
//     override the matching name+descriptor slot inherited from the
//     superclass if one is visible (public/protected, or package-private
//     within the same runtime package — approximated here as exact
//     package-name match)
//  4. any of cls's own virtual methods that didn't match an inherited slot
//     are appended as new vtable entries
//  5. default (non-abstract) interface methods this class doesn't itself
//     implement are appended from the interfaces it implements, in
//     declaration order, so invokeinterface can also resolve through the
//     class's own vtable once a concrete receiver is known
func buildVtable(cls *Class) {
	if cls.Super != nil {
		cls.Vtable = append(cls.Vtable, cls.Super.Vtable...)
	}

	if cls.IsInterface() {
		return
	}

	matched := make(map[*Method]bool)

	for _, m := range cls.Methods {
		if !isVirtualCandidate(m) {
			continue
		}
		overrideSlot := -1
		for slot, existing := range cls.Vtable {
			if existing.Name == m.Name && existing.Descriptor == m.Descriptor && isOverridable(existing, cls) {
				overrideSlot = slot
				break
			}
		}
		if overrideSlot >= 0 {
			cls.Vtable[overrideSlot] = m
			m.VtableSlot = overrideSlot
			matched[m] = true
		}
	}

	for _, m := range cls.Methods {
		if !isVirtualCandidate(m) || matched[m] {
			continue
		}
		m.VtableSlot = len(cls.Vtable)
		cls.Vtable = append(cls.Vtable, m)
		matched[m] = true
	}

	for _, iface := range cls.Interfaces {
		for _, im := range iface.Methods {
			if im.IsAbstract() || im.IsStatic() {
				continue
			}
			if cls.FindMethod(im.Name, im.Descriptor) != nil {
				continue
			}
			already := false
			for _, existing := range cls.Vtable {
				if existing.Name == im.Name && existing.Descriptor == im.Descriptor {
					already = true
					break
				}
			}
			if already {
				continue
			}
			// im is iface.Methods[j], the same *Method shared by every class
			// that implements iface — give cls its own copy before stamping
			// a slot onto it, so the position this class appends it at
			// doesn't clobber another implementing class's view of the same
			// default method.
			bound := *im
			bound.VtableSlot = len(cls.Vtable)
			cls.Vtable = append(cls.Vtable, &bound)
		}
	}
}

func isVirtualCandidate(m *Method) bool {
	if m.IsStatic() || m.IsPrivate() {
		return false
	}
	if m.Name == "<init>" || m.Name == "<clinit>" {
		return false
	}
	return true
}

// isOverridable reports whether an inherited vtable slot can be overridden
// by a method of cls: the inherited method is not final, and it is public
// or protected, or its owner is in the same package as cls. Private and
// static methods never reach the vtable in the first place
// (isVirtualCandidate filters them out before insertion).
func isOverridable(m *Method, cls *Class) bool {
	if m.IsFinal() {
		return false
	}
	if m.AccessFlags&(AccPublic|AccProtected) != 0 || m.OwnerClass == nil {
		return true
	}
	return path.Dir(m.OwnerClass.Name) == path.Dir(cls.Name)
}
