/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements component C, spec.md §3.3/§4.3: the 32-bit
// object-identifier heap, split into an ordinary heap (plain instances and
// arrays) and a special heap (interned strings, class mirrors) selected by
// the identifier's high bit — grounded directly on the original
// implementation's Heap/SpecialHeap split in original_source's
// src/runtime/heap.rs.
//
// That original carries its own manual allocator and Arc-based refcounting
// because Rust has no tracing GC; here, object identity and lifetime are
// backed by ordinary Go values reachable through the heap's slice, and Go's
// garbage collector does the reclamation work the original's explicit
// deallocate() did by hand (see SPEC_FULL.md §5). deallocate() is kept as
// an explicit id-recycling operation (so JVM-visible identity churn still
// behaves the same way under repeated alloc/free) but it does not need to
// free any memory itself.
package heap

import (
	"sync"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/object"
)

// specialBit marks an identifier as belonging to the special heap rather
// than the ordinary one, mirroring Heap::MAX_OBJECT_ID in the original.
const specialBit uint32 = 0x8000_0000

// Heap is the per-VM object table. A single Heap is normally shared by
// every guest thread; all operations are safe for concurrent use.
type Heap struct {
	mu      sync.RWMutex
	objects []*object.Object // index i holds the object for id i+1
	nextID  uint32

	special   []*object.Object
	specialID uint32

	internedStrings map[string]uint32 // guest string content -> special-heap id
	classMirrors    map[string]uint32 // class binary name -> special-heap id
}

// New returns an empty Heap.
func New() *Heap {
	return &Heap{
		internedStrings: make(map[string]uint32),
		classMirrors:    make(map[string]uint32),
	}
}

// Allocate stores obj in the ordinary heap and returns its new identifier.
// Used for both `new` (instance allocation) and `newarray`/`anewarray`
// (array allocation) — the original's allocate_object/allocate_array are
// unified here since Go doesn't need the separate unsafe init-closures the
// original uses to initialize raw memory in place.
func (h *Heap) Allocate(obj *object.Object) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return allocateInto(&h.objects, &h.nextID, obj)
}

func allocateInto(slots *[]*object.Object, nextID *uint32, obj *object.Object) uint32 {
	id := *nextID
	if int(id) >= len(*slots) {
		*slots = append(*slots, make([]*object.Object, int(id)-len(*slots)+1)...)
	}
	(*slots)[id] = obj
	for int(*nextID) < len(*slots) && (*slots)[*nextID] != nil {
		*nextID++
	}
	return id + 1
}

// Deallocate recycles id, allowing it to be reused by a future allocation.
// Nothing prevents use-after-free here beyond the interpreter's own
// reachability discipline — exactly as in the original, which hands this
// responsibility to its (absent, in this port) garbage collector.
func (h *Heap) Deallocate(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id&specialBit != 0 {
		idx := (id &^ specialBit) - 1
		if int(idx) < len(h.special) {
			h.special[idx] = nil
		}
		if id&^specialBit-1 < h.specialID {
			h.specialID = id &^ specialBit - 1
		}
		return
	}
	idx := id - 1
	if int(idx) < len(h.objects) {
		h.objects[idx] = nil
	}
	if idx < h.nextID {
		h.nextID = idx
	}
}

// Get dereferences id to its live object. ok is false for id 0 (the null
// reference) or a recycled/unknown id.
func (h *Heap) Get(id uint32) (obj *object.Object, ok bool) {
	if id == 0 {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if id&specialBit != 0 {
		idx := id &^ specialBit - 1
		if int(idx) >= len(h.special) {
			return nil, false
		}
		obj = h.special[idx]
	} else {
		idx := id - 1
		if int(idx) >= len(h.objects) {
			return nil, false
		}
		obj = h.objects[idx]
	}
	return obj, obj != nil
}

// Clone allocates a new ordinary-heap entry holding a shallow copy of the
// object at id, per spec.md §4.3's clone() semantics — the VMException for
// a non-Cloneable receiver is the caller's (jvm's Object.clone native's)
// responsibility, not the heap's.
func (h *Heap) Clone(id uint32) (uint32, bool) {
	src, ok := h.Get(id)
	if !ok {
		return 0, false
	}
	return h.Allocate(src.ShallowClone()), true
}

// InternString returns the special-heap identifier for the guest String
// with the given Go-string content, allocating and interning a fresh
// java/lang/String instance on first use — the guest-visible counterpart
// to package stringPool's VM-internal name table, grounded on the
// original's Heap::intern_string / StringTable.
func (h *Heap) InternString(content string) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.internedStrings[content]; ok {
		return id
	}
	obj := object.CreateCompactStringFromGoString(&content)
	id := allocateInto(&h.special, &h.specialID, obj) | specialBit
	h.internedStrings[content] = id
	return id
}

// ClassMirror returns the special-heap identifier of cls's java/lang/Class
// mirror object, allocating it on first request. Each class gets exactly
// one mirror for the lifetime of the VM, per spec.md §4.7.1's
// java/lang/Class surface and the original's ClassTable cache.
func (h *Heap) ClassMirror(cls *classloader.Class) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.classMirrors[cls.Name]; ok {
		return id
	}
	mirror := object.MakeEmptyObject()
	className := "java/lang/Class"
	mirror.Klass = &className
	mirror.PutFieldByName("name", object.Field{Ftype: "Ljava/lang/String;", Fvalue: cls.Name})
	id := allocateInto(&h.special, &h.specialID, mirror) | specialBit
	h.classMirrors[cls.Name] = id
	return id
}
