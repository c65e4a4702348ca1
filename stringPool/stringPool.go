/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringPool is the VM-internal table of interned Go strings used
// as dictionary keys throughout the loader and object model: class binary
// names, field/method names, and descriptors. It is distinct from the
// guest-visible heap string table (package heap): this pool never produces
// an object identifier, only a dense uint32 index.
package stringPool

import "sync"

var (
	mu      sync.RWMutex
	strings []string
	index   = map[string]uint32{}
)

func init() {
	Reset()
}

// Reset empties the pool. Used by tests that need a clean pool between
// cases (mirroring how jacobin's tests call globals.InitGlobals("test") to
// reset VM-wide state).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	strings = []string{""} // index 0 is reserved for the empty string
	index = map[string]uint32{"": 0}
}

// GetStringIndex interns s if it is not already present and returns its
// dense index. Calling GetStringIndex twice with equal strings returns the
// same index (spec.md §8 interning invariant, applied to this internal
// pool as well as to the guest-visible one in package heap).
func GetStringIndex(s string) uint32 {
	mu.RLock()
	if i, ok := index[s]; ok {
		mu.RUnlock()
		return i
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	// re-check under the write lock: another goroutine may have interned
	// the same string while we waited.
	if i, ok := index[s]; ok {
		return i
	}
	i := uint32(len(strings))
	strings = append(strings, s)
	index[s] = i
	return i
}

// GetStringPointer returns a pointer to the interned string at index i, or
// nil if i is out of range. The pointer is stable for the life of the pool:
// the backing slice only ever grows by append, and entries are never
// removed or reallocated in place.
func GetStringPointer(i uint32) *string {
	mu.RLock()
	defer mu.RUnlock()
	if int(i) >= len(strings) {
		return nil
	}
	return &strings[i]
}

// GetString is a convenience wrapper around GetStringPointer that returns
// the empty string instead of a nil pointer for an out-of-range index.
func GetString(i uint32) string {
	if p := GetStringPointer(i); p != nil {
		return *p
	}
	return ""
}

// GetStringPoolSize returns the number of interned strings, including the
// reserved empty string at index 0.
func GetStringPoolSize() uint32 {
	mu.RLock()
	defer mu.RUnlock()
	return uint32(len(strings))
}
