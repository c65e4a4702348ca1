/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"path/filepath"
	"testing"
)

func TestObjectToString1(t *testing.T) {
	obj := MakeEmptyObject()
	klassType := filepath.FromSlash("java/lang/madeUpClass")
	obj.Klass = &klassType

	obj.PutFieldByName("myFloat", Field{Ftype: "F", Fvalue: 1.0})
	obj.PutFieldByName("myDouble", Field{Ftype: "D", Fvalue: 2.0})
	obj.PutFieldByName("myInt", Field{Ftype: "I", Fvalue: 42})
	obj.PutFieldByName("myLong", Field{Ftype: "J", Fvalue: 42})
	obj.PutFieldByName("myShort", Field{Ftype: "S", Fvalue: 42})
	obj.PutFieldByName("myByte", Field{Ftype: "B", Fvalue: 0x61})
	obj.PutFieldByName("myStaticTrue", Field{Ftype: "XZ", Fvalue: true})
	obj.PutFieldByName("myFalse", Field{Ftype: "Z", Fvalue: false})
	obj.PutFieldByName("myChar", Field{Ftype: "C", Fvalue: 'C'})
	obj.PutFieldByName("myString", Field{Ftype: "Ljava/lang/String;", Fvalue: "Hello, Unka Andoo !"})

	str := obj.ToString()
	if len(str) == 0 {
		t.Errorf("empty string for object.ToString()")
	} else {
		t.Log(str)
	}
}

func TestObjectToString2(t *testing.T) {
	literal := "This is a compact string from a Go string"
	csObj := CreateCompactStringFromGoString(&literal)
	retStr := csObj.ToString()
	if len(retStr) == 0 {
		t.Errorf("empty string for object.ToString()")
	} else {
		t.Log(retStr)
	}

	// Create a custom object.
	obj := MakeEmptyObject()
	klassType := filepath.FromSlash("java/lang/madeUpClass")
	obj.Klass = &klassType

	// Now, dump the same string under a different class name.
	csObj.Klass = &klassType
	retStr = csObj.ToString()
	if len(retStr) == 0 {
		t.Errorf("empty string for object.ToString()")
	} else {
		t.Log(retStr)
	}

	obj.Fields = make([]Field, 1)
	obj.Fields[0] = Field{Ftype: "F", Fvalue: 1.0}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "D", Fvalue: 2.0}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "I", Fvalue: 42}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "J", Fvalue: 42}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "S", Fvalue: 42}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "B", Fvalue: 0x61}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "XZ", Fvalue: true}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "Z", Fvalue: false}
	t.Log(obj.ToString())

	obj.Fields[0] = Field{Ftype: "C", Fvalue: 'C'}
	t.Log(obj.ToString())
}

func TestShallowClone(t *testing.T) {
	className := "java/lang/Object"
	obj := NewInstance(className, []FieldLayoutEntry{
		{Name: "x", Descriptor: "I", Slot: 0, Default: int64(0)},
	})
	obj.PutFieldBySlot(0, Field{Ftype: "I", Fvalue: int64(5)})

	clone := obj.ShallowClone()
	if clone == obj {
		t.Fatalf("clone must be a distinct object")
	}
	if clone.GetFieldBySlot(0).Fvalue != int64(5) {
		t.Fatalf("clone did not copy field value")
	}
	f, ok := clone.GetFieldByName("x")
	if !ok || f.Fvalue != int64(5) {
		t.Fatalf("clone's FieldTable did not alias the cloned slot")
	}
}

func TestMonitorReentrant(t *testing.T) {
	m := NewMonitor()
	m.Enter(1)
	m.Enter(1)
	if !m.IsHeldBy(1) {
		t.Fatalf("expected thread 1 to hold monitor")
	}
	if m.Exit(2) {
		t.Fatalf("thread 2 should not be able to exit a monitor it does not own")
	}
	if !m.Exit(1) || !m.Exit(1) {
		t.Fatalf("thread 1 should be able to exit twice after entering twice")
	}
	if m.IsHeldBy(1) {
		t.Fatalf("monitor should be free after balanced enter/exit")
	}
}
