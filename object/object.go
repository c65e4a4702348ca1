/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object defines the heap-object shapes of spec.md §3.3: one
// capability set — get class, put/get field, put/get array element, array
// size, monitor — implemented by the ordinary ("instance" or "array")
// Object shape. The heap package stores interned strings and class mirrors
// in its special heap as ordinary Objects too; there is no separate shape
// for them.
//
// Klass is stored as a class *binary name* rather than a pointer to the
// runtime class model in package classloader, exactly as the teacher does
// it: classloader never needs to import object (constant-value fields are
// numeric/string literals, not heap references), so keeping the pointer out
// of this package avoids the cycle that would otherwise exist between "the
// class that owns an object" and "the objects a class's statics point to".
package object

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MarkWord holds the identity hash seeded at allocation (spec.md §3.3's
// per-object header, minus the monitor which gets its own field because it
// needs a mutex, not just a value).
type MarkWord struct {
	Hash uint32
}

// Field is one instance or static field slot: its declared descriptor
// letter and its current value. Fvalue holds int64 for every integral kind
// (byte/char/short/int/long/boolean, widened for arithmetic convenience),
// float64 for float/double, uint32 for a reference (an object identifier,
// 0 = null), and []Field for... nothing; arrays are never stored as a
// field's Fvalue, they get their own ObjectRef with ArrayElements set.
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// Monitor is the per-object reentrant lock of spec.md §3.3/§3.12. Owner is
// a thread identifier; 0 means unowned. Count tracks reentrant depth so the
// owning thread can MONITORENTER repeatedly and must MONITOREXIT the same
// number of times.
type Monitor struct {
	mu    sync.Mutex
	cond  *sync.Cond
	Owner int64
	Count int
}

// NewMonitor returns a ready-to-use Monitor.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Enter acquires the monitor for threadID, blocking if another thread
// holds it, and re-entering (incrementing Count) if threadID already does.
func (m *Monitor) Enter(threadID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.Owner != 0 && m.Owner != threadID {
		m.cond.Wait()
	}
	m.Owner = threadID
	m.Count++
}

// Exit releases one level of ownership. It returns false (and leaves the
// monitor untouched) if threadID does not currently own it, which the
// caller turns into IllegalMonitorStateException per spec.md §4.5.9.
func (m *Monitor) Exit(threadID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Owner != threadID {
		return false
	}
	m.Count--
	if m.Count == 0 {
		m.Owner = 0
		m.cond.Broadcast()
	}
	return true
}

// IsHeldBy reports whether threadID currently owns the monitor.
func (m *Monitor) IsHeldBy(threadID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Owner == threadID
}

// Notify wakes one thread blocked in Wait, per spec.md §3.12's wait queue.
func (m *Monitor) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cond.Signal()
}

// NotifyAll wakes every thread blocked in Wait.
func (m *Monitor) NotifyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cond.Broadcast()
}

// Wait releases the monitor and blocks the calling thread until notified,
// or until timeoutMs elapses (0 means wait indefinitely), then reacquires
// it — Object.wait's contract, simplified: this port has no guest thread
// scheduler (spec.md §1 Non-goals), so a timed wait is approximated with a
// timer goroutine that notifies the condition variable itself rather than
// actually suspending a scheduled thread.
func (m *Monitor) Wait(timeoutMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, count := m.Owner, m.Count
	m.Owner, m.Count = 0, 0
	m.cond.Broadcast()
	if timeoutMs > 0 {
		timer := time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		defer timer.Stop()
	}
	m.cond.Wait()
	for m.Owner != 0 {
		m.cond.Wait()
	}
	m.Owner, m.Count = owner, count
}

// Ref is the capability set spec.md §3.3 requires of every heap entry,
// ordinary or special.
type Ref interface {
	ClassName() string
	IsArray() bool
	GetMonitor() *Monitor

	GetFieldByName(name string) (Field, bool)
	PutFieldByName(name string, f Field)
	GetFieldBySlot(slot int) Field
	PutFieldBySlot(slot int, f Field)

	ArrayLength() int
	GetArrayElement(index int) interface{}
	PutArrayElement(index int, v interface{})
}

// Object is the ordinary heap-object shape: either an instance (Fields is
// the dense, class-layout-ordered slot vector; ArrayElemType is "") or a
// primitive/reference array (ArrayElemType is the element's field
// descriptor letter; Fields is nil).
type Object struct {
	Klass      *string // class binary name
	Mark       MarkWord
	monitor    *Monitor
	FieldTable map[string]*Field // name -> slot alias, built at allocation

	Fields []Field // instance fields, ordered by class-layout slot index

	ArrayElemType string        // "" unless this object is an array
	ArrayElements []interface{} // length fixed at allocation
}

// MakeEmptyObject returns a zero-value instance object with no class set
// and an empty field table, matching the teacher's MakeEmptyObject used
// throughout object_test.go.
func MakeEmptyObject() *Object {
	return &Object{
		FieldTable: make(map[string]*Field),
		monitor:    NewMonitor(),
	}
}

// NewInstance allocates an instance object with slotCount fields, each
// defaulted to the zero value of its descriptor, and a FieldTable built
// from the supplied (name -> slot) layout so that GetFieldByName and
// GetFieldBySlot always observe the same storage.
func NewInstance(className string, layout []FieldLayoutEntry) *Object {
	obj := &Object{
		Klass:      &className,
		FieldTable: make(map[string]*Field, len(layout)),
		Fields:     make([]Field, len(layout)),
		monitor:    NewMonitor(),
	}
	for _, entry := range layout {
		obj.Fields[entry.Slot] = Field{Ftype: entry.Descriptor, Fvalue: entry.Default}
		obj.FieldTable[entry.Name] = &obj.Fields[entry.Slot]
	}
	return obj
}

// FieldLayoutEntry is the minimal shape NewInstance needs from
// classloader's field-layout computation: a field's name, its declared
// descriptor, its dense slot index, and its default (zero) value.
type FieldLayoutEntry struct {
	Name       string
	Descriptor string
	Slot       int
	Default    interface{}
}

// NewArray allocates a fixed-length array object of the given element
// descriptor letter, every element defaulted to zero/null.
func NewArray(className, elemType string, length int, zero interface{}) *Object {
	elems := make([]interface{}, length)
	for i := range elems {
		elems[i] = zero
	}
	return &Object{
		Klass:         &className,
		ArrayElemType: elemType,
		ArrayElements: elems,
		monitor:       NewMonitor(),
	}
}

func (o *Object) ClassName() string {
	if o.Klass == nil {
		return ""
	}
	return *o.Klass
}

func (o *Object) IsArray() bool { return o.ArrayElemType != "" }

func (o *Object) GetMonitor() *Monitor {
	if o.monitor == nil {
		o.monitor = NewMonitor()
	}
	return o.monitor
}

func (o *Object) GetFieldByName(name string) (Field, bool) {
	f, ok := o.FieldTable[name]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

func (o *Object) PutFieldByName(name string, f Field) {
	if existing, ok := o.FieldTable[name]; ok {
		*existing = f
		return
	}
	nf := f
	o.FieldTable[name] = &nf
}

func (o *Object) GetFieldBySlot(slot int) Field {
	if slot < 0 || slot >= len(o.Fields) {
		return Field{}
	}
	return o.Fields[slot]
}

func (o *Object) PutFieldBySlot(slot int, f Field) {
	if slot < 0 || slot >= len(o.Fields) {
		return
	}
	o.Fields[slot] = f
}

func (o *Object) ArrayLength() int {
	return len(o.ArrayElements)
}

func (o *Object) GetArrayElement(index int) interface{} {
	if index < 0 || index >= len(o.ArrayElements) {
		return nil
	}
	return o.ArrayElements[index]
}

func (o *Object) PutArrayElement(index int, v interface{}) {
	if index < 0 || index >= len(o.ArrayElements) {
		return
	}
	o.ArrayElements[index] = v
}

// ShallowClone returns a new Object with the same class and a bitwise copy
// of the payload (fields or array elements) but a fresh monitor and
// identity, matching spec.md §4.3's clone() contract. The caller is
// responsible for checking Cloneable before calling this.
func (o *Object) ShallowClone() *Object {
	clone := &Object{
		Klass:         o.Klass,
		Mark:          o.Mark,
		monitor:       NewMonitor(),
		ArrayElemType: o.ArrayElemType,
	}
	if o.IsArray() {
		clone.ArrayElements = append([]interface{}(nil), o.ArrayElements...)
	} else {
		clone.Fields = append([]Field(nil), o.Fields...)
		clone.FieldTable = make(map[string]*Field, len(clone.Fields))
		for name, f := range o.FieldTable {
			// find the same slot in the cloned Fields by matching the
			// pointer's index in the source slice
			for i := range o.Fields {
				if &o.Fields[i] == f {
					clone.FieldTable[name] = &clone.Fields[i]
					break
				}
			}
		}
	}
	return clone
}

// ToString renders a debug dump of the object's fields, in the spirit of
// the teacher's object.ToString() used by object_test.go to sanity-check
// every primitive field kind prints without panicking.
func (o *Object) ToString() string {
	var sb strings.Builder
	className := o.ClassName()
	if className == "" {
		className = "<anonymous>"
	}
	sb.WriteString(fmt.Sprintf("class: %s\n", className))
	if o.IsArray() {
		sb.WriteString(fmt.Sprintf("array[%s] len=%d\n", o.ArrayElemType, len(o.ArrayElements)))
		return sb.String()
	}
	for name, f := range o.FieldTable {
		sb.WriteString(fmt.Sprintf("  %s %s = %v\n", f.Ftype, name, f.Fvalue))
	}
	for i, f := range o.Fields {
		sb.WriteString(fmt.Sprintf("  [%d] %s = %v\n", i, f.Ftype, f.Fvalue))
	}
	return sb.String()
}
