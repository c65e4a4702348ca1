/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brinestone/stackvm/object"
)

func TestAllocateOrdinaryObject(t *testing.T) {
	h := New()
	obj := object.NewInstance("java/lang/Object", []object.FieldLayoutEntry{
		{Name: "x", Descriptor: "I", Slot: 0, Default: int64(0)},
		{Name: "y", Descriptor: "I", Slot: 1, Default: int64(0)},
	})
	id := h.Allocate(obj)
	assert.NotZero(t, id)

	got, ok := h.Get(id)
	assert.True(t, ok)
	got.PutFieldBySlot(1, object.Field{Ftype: "I", Fvalue: int64(1)})
	assert.EqualValues(t, 0, got.GetFieldBySlot(0).Fvalue)
	assert.EqualValues(t, 1, got.GetFieldBySlot(1).Fvalue)

	h.Deallocate(id)
	_, ok = h.Get(id)
	assert.False(t, ok)
}

func TestAllocateOrdinaryArray(t *testing.T) {
	h := New()
	arr := object.NewArray("[B", "B", 2, int64(0))
	id := h.Allocate(arr)

	got, _ := h.Get(id)
	got.PutArrayElement(1, int64(1))
	assert.EqualValues(t, 0, got.GetArrayElement(0))
	assert.EqualValues(t, 1, got.GetArrayElement(1))

	h.Deallocate(id)
}

func TestInternStringDeduplicates(t *testing.T) {
	h := New()
	id1 := h.InternString("hello")
	id2 := h.InternString("hello")
	assert.Equal(t, id1, id2)

	id3 := h.InternString("world")
	assert.NotEqual(t, id1, id3)

	obj, ok := h.Get(id1)
	assert.True(t, ok)
	assert.Equal(t, "java/lang/String", obj.ClassName())
}

func TestCloneProducesDistinctIdentity(t *testing.T) {
	h := New()
	obj := object.NewInstance("java/lang/Object", []object.FieldLayoutEntry{
		{Name: "x", Descriptor: "I", Slot: 0, Default: int64(5)},
	})
	id := h.Allocate(obj)

	cloneID, ok := h.Clone(id)
	assert.True(t, ok)
	assert.NotEqual(t, id, cloneID)

	clone, _ := h.Get(cloneID)
	assert.EqualValues(t, 5, clone.GetFieldBySlot(0).Fvalue)
}

func TestIdentifierRecycling(t *testing.T) {
	h := New()
	obj1 := object.MakeEmptyObject()
	id1 := h.Allocate(obj1)
	h.Deallocate(id1)

	obj2 := object.MakeEmptyObject()
	id2 := h.Allocate(obj2)
	assert.Equal(t, id1, id2, "a recycled id should be reused by the next allocation")
}
