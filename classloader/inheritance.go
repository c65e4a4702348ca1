/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements spec.md §4.8: the subtype and assignability
// predicates the interpreter's checkcast/instanceof/invokevirtual dispatch
// and array-store checks all reduce to.
package classloader

import "strings"

// IsSameOrSubClassOf reports whether sub is class/interface name or a
// (possibly indirect) subclass/implementor of super.
func IsSameOrSubClassOf(sub, super *Class) bool {
	if sub == nil || super == nil {
		return false
	}
	if sub.Name == super.Name {
		return true
	}
	if super.IsInterface() {
		return IsClassImplements(sub, super)
	}
	for c := sub.Super; c != nil; c = c.Super {
		if c.Name == super.Name {
			return true
		}
	}
	return false
}

// IsClassImplements reports whether cls (or any of its superclasses)
// directly or transitively implements iface.
func IsClassImplements(cls, iface *Class) bool {
	if cls == nil || iface == nil {
		return false
	}
	for c := cls; c != nil; c = c.Super {
		for _, i := range c.Interfaces {
			if i.Name == iface.Name || IsClassImplements(i, iface) {
				return true
			}
		}
	}
	return false
}

// IsArrayAssignableTo implements array covariance, spec.md §3.4/§4.8: an
// array of fromElem is assignable to a variable of array-of-toElem type
// when the element types are identical, or (for reference element types)
// fromElem is a subtype of toElem. fromElem/toElem are binary class names
// for reference components, or a primitive descriptor letter.
func IsArrayAssignableTo(fromElem, toElem string, resolve func(string) *Class) bool {
	if fromElem == toElem {
		return true
	}
	// primitive array element types are never covariant with one another.
	if len(fromElem) <= 1 || len(toElem) <= 1 {
		return false
	}
	if strings.HasPrefix(fromElem, "[") || strings.HasPrefix(toElem, "[") {
		// nested array element: strip one dimension and recurse.
		if strings.HasPrefix(fromElem, "[") && strings.HasPrefix(toElem, "[") {
			return IsArrayAssignableTo(fromElem[1:], toElem[1:], resolve)
		}
		return false
	}
	fromClass := resolve(fromElem)
	toClass := resolve(toElem)
	return IsSameOrSubClassOf(fromClass, toClass)
}
