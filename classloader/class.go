/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements component D, spec.md §3.1/§4.4: the runtime Class
// model produced by linking a ParsedClass, plus the class-initialization
// state machine of spec.md §4.4.4.
//
// Class deliberately never references package object: statics are stored
// as a local StaticSlot vector here, not as object.Field values, so that
// object's "Klass is a *string, never a *Class" design (see object.go's
// package doc) stays a one-way dependency — classloader is free to import
// object later without object ever needing to import classloader back.
package classloader

import (
	"sync"
	"sync/atomic"

	"github.com/brinestone/stackvm/vmerr"
)

// InitState is the class-initialization state machine of spec.md §4.4.4:
// not-initialized -> initializing -> initialized | failed. A class that
// fails initialization stays failed forever; every subsequent active use
// gets back the same cached error its <clinit> failed with.
type InitState int32

const (
	NotInitialized InitState = iota
	Initializing
	Initialized
	Failed
)

// FieldDecl is one declared field's static shape: its descriptor, its
// dense slot index within its storage vector (instance or static — they
// are numbered independently), and whether a ConstantValue attribute
// supplies its initial value.
type FieldDecl struct {
	Name            string
	Descriptor      string
	AccessFlags     uint16
	Slot            int
	IsStatic        bool
	ConstantValue   interface{} // nil unless a ConstantValue attribute was present
}

// StaticSlot is one static field's live storage cell, kept directly on
// Class rather than on a heap object (statics belong to the class, not to
// any instance).
type StaticSlot struct {
	Descriptor string
	Value      interface{}
}

// Method is the runtime shape of a parsed method: its descriptor, access
// flags, and (for non-abstract, non-native methods) the Code attribute the
// interpreter executes.
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags uint16
	Code        *CodeAttribute
	OwnerClass  *Class

	// VtableSlot is this method's index in its owner's vtable, or -1 if it
	// is never virtually dispatched (private, <init>, static).
	VtableSlot int
}

func (m *Method) IsStatic() bool   { return m.AccessFlags&AccStatic != 0 }
func (m *Method) IsPrivate() bool  { return m.AccessFlags&AccPrivate != 0 }
func (m *Method) IsAbstract() bool { return m.AccessFlags&AccAbstract != 0 }
func (m *Method) IsNative() bool   { return m.AccessFlags&AccNative != 0 }
func (m *Method) IsFinal() bool    { return m.AccessFlags&AccFinal != 0 }

// Access flag bits shared by classes, fields and methods (spec.md §4.1,
// JVM spec table 4.1-A/4.5-A/4.6-A — only the bits the interpreter and
// linker actually branch on are named here).
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020
	AccSynchronized uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccModule       uint16 = 0x8000
)

// Class is the runtime model of a linked class or interface, spec.md §3.1.
// It is built once by define_class and never mutated afterward except for
// static field values and the init-state machine.
type Class struct {
	Name        string
	AccessFlags uint16
	Super       *Class   // nil only for java/lang/Object
	Interfaces  []*Class // direct superinterfaces, resolved

	CP *ConstantPool

	// InstanceFields is every field this class contributes to instance
	// layout (its own declared non-static fields only; inherited fields
	// live in the superclass's own InstanceFields and are addressed via
	// the flattened InstanceLayout below).
	InstanceFields []FieldDecl
	StaticFields   []FieldDecl

	// InstanceLayout is the flattened, dense slot assignment spec.md
	// §4.4.2 describes: superclass fields first (in superclass-chain
	// order, root first), then this class's own declared fields.
	InstanceLayout []FieldDecl
	InstanceSlots  int // len(InstanceLayout); convenience for object.NewInstance callers

	Statics   []StaticSlot
	staticsMu sync.RWMutex

	Methods []*Method
	// MethodIndex speeds up name+descriptor lookup during resolution.
	MethodIndex map[string]*Method // key: name + "#" + descriptor

	// Vtable is the ordered virtual-dispatch table of spec.md §4.4.3,
	// built by the five rules in buildVtable (vtable.go).
	Vtable []*Method

	SourceFile string

	state     int32 // InitState, accessed atomically
	initMu    sync.Mutex
	initCond  *sync.Cond
	initOwner int64 // thread id currently running <clinit>, 0 if none
	initErr   error

	// IsArrayClass is true for synthetic classes built by arrayclass.go
	// ("[I", "[Ljava/lang/String;", ...); such classes have no Methods,
	// no declared Fields, and Super is always java/lang/Object.
	IsArrayClass  bool
	ArrayElemType string
}

func newClass(name string) *Class {
	c := &Class{
		Name:        name,
		MethodIndex: make(map[string]*Method),
	}
	c.initCond = sync.NewCond(&c.initMu)
	return c
}

func (c *Class) IsInterface() bool { return c.AccessFlags&AccInterface != 0 }
func (c *Class) IsAbstract() bool  { return c.AccessFlags&AccAbstract != 0 }
func (c *Class) IsFinal() bool     { return c.AccessFlags&AccFinal != 0 }

func (c *Class) State() InitState {
	return InitState(atomic.LoadInt32(&c.state))
}

// GetStatic reads a static field's current value. There is no bounds
// check: an out-of-range slot panics, since it would indicate a linker bug,
// not a guest error; callers trust the slot came from a successful
// resolution.
func (c *Class) GetStatic(slot int) StaticSlot {
	c.staticsMu.RLock()
	defer c.staticsMu.RUnlock()
	return c.Statics[slot]
}

func (c *Class) PutStatic(slot int, v interface{}) {
	c.staticsMu.Lock()
	defer c.staticsMu.Unlock()
	c.Statics[slot].Value = v
}

// FindMethod looks up a method by name+descriptor in this class only (no
// superclass walk); used by vtable construction and by invokespecial's
// direct-binding rule.
func (c *Class) FindMethod(name, descriptor string) *Method {
	return c.MethodIndex[name+"#"+descriptor]
}

// FindVtableMethod searches c's already-built Vtable for an entry matching
// name+descriptor. Unlike FindMethod, this also reaches default interface
// methods buildVtable's rule 5 appended and inherited entries copied from a
// superclass — the search invokeinterface dispatch needs, since an
// interface's own default-method Method object is never assigned a
// meaningful VtableSlot (interfaces never build a vtable of their own) and
// so cannot be indexed into directly.
func (c *Class) FindVtableMethod(name, descriptor string) *Method {
	for _, m := range c.Vtable {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// beginInit attempts to transition this class from NotInitialized to
// Initializing under the current thread's ownership, per spec.md §4.4.4.
// It returns (proceed=true) when the caller should run <clinit>, false
// when another thread owned initialization (beginInit itself blocks until
// that thread finishes), when this thread is already running <clinit>, or
// when the class is already initialized/failed.
func (c *Class) beginInit(threadID int64) (proceed bool) {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	switch InitState(c.state) {
	case NotInitialized:
		atomic.StoreInt32(&c.state, int32(Initializing))
		c.initOwner = threadID
		return true
	case Initializing:
		if c.initOwner == threadID {
			// Reentrant <clinit> trigger (e.g. a static initializer that
			// references its own class): spec.md §4.4.4 treats this as a
			// no-op pass-through, not a deadlock.
			return false
		}
		for InitState(c.state) == Initializing {
			c.initCond.Wait()
		}
		return false
	default:
		return false
	}
}

// finishInit transitions Initializing -> Initialized (err == nil) or
// Failed (err != nil), waking any threads blocked in beginInit.
func (c *Class) finishInit(err error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if err != nil {
		c.initErr = vmerr.AsVMException(err)
		atomic.StoreInt32(&c.state, int32(Failed))
	} else {
		atomic.StoreInt32(&c.state, int32(Initialized))
	}
	c.initOwner = 0
	c.initCond.Broadcast()
}

// EnsureInitializedErr returns the cached initialization failure, if this
// class previously failed to initialize: the same error value on every
// call, not a fresh NoClassDefFoundError. InitClass (init.go) checks it on
// every active use.
func (c *Class) EnsureInitializedErr() error {
	if InitState(c.state) == Failed {
		return c.initErr
	}
	return nil
}
