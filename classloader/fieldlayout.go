/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements spec.md §4.4.2: dense instance- and static-field
// slot assignment, inherited fields first.
package classloader

import (
	"github.com/brinestone/stackvm/descriptor"
	"github.com/brinestone/stackvm/types"
)

// buildFieldLayout assigns dense slot indices to cls's declared fields and
// flattens the inherited chain into InstanceLayout, per spec.md §4.4.2:
// "superclass instance fields occupy the lowest slots, in superclass-chain
// order (root first), followed by this class's own declared fields in
// declaration order".
func buildFieldLayout(cls *Class, pc *ParsedClass) error {
	var inherited []FieldDecl
	if cls.Super != nil {
		inherited = append(inherited, cls.Super.InstanceLayout...)
	}

	instanceSlot := len(inherited)
	staticSlot := 0

	for _, pf := range pc.Fields {
		name := pc.CP.Utf8(pf.NameIndex)
		desc := pc.CP.Utf8(pf.DescriptorIndex)

		decl := FieldDecl{
			Name:        name,
			Descriptor:  desc,
			AccessFlags: pf.AccessFlags,
			IsStatic:    pf.AccessFlags&AccStatic != 0,
		}

		ft, _, err := descriptor.ParseFieldDescriptor(desc, 0)
		if err != nil {
			return err
		}

		if cv, ok := constantValueOf(pf, pc.CP); ok {
			decl.ConstantValue = cv
		} else {
			decl.ConstantValue = types.DefaultValue(ft.Letter())
		}

		if decl.IsStatic {
			decl.Slot = staticSlot
			staticSlot++
			cls.StaticFields = append(cls.StaticFields, decl)
		} else {
			decl.Slot = instanceSlot
			instanceSlot++
			cls.InstanceFields = append(cls.InstanceFields, decl)
			inherited = append(inherited, decl)
		}
	}

	cls.InstanceLayout = inherited
	cls.InstanceSlots = len(inherited)

	cls.Statics = make([]StaticSlot, len(cls.StaticFields))
	for _, f := range cls.StaticFields {
		cls.Statics[f.Slot] = StaticSlot{Descriptor: f.Descriptor, Value: f.ConstantValue}
	}

	return nil
}

// constantValueOf reads a field's ConstantValue attribute, if present
// (spec.md §4.1: used to seed a static final field's initial value without
// running <clinit>).
func constantValueOf(pf ParsedField, cp *ConstantPool) (interface{}, bool) {
	for _, a := range pf.Attributes {
		if a.Name != "ConstantValue" {
			continue
		}
		if len(a.Info) < 2 {
			return nil, false
		}
		idx := uint16(a.Info[0])<<8 | uint16(a.Info[1])
		switch v := cp.Get(idx).(type) {
		case *IntegerInfo:
			return int64(v.Value), true
		case *LongInfo:
			return v.Value, true
		case *FloatInfo:
			return float64(v.Value), true
		case *DoubleInfo:
			return v.Value, true
		case *StringInfo:
			return cp.Utf8(v.StringIndex), true
		}
	}
	return nil, false
}
