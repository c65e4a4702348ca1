/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file implements inert registerNatives stubs for
// jdk/internal/misc/ScopedMemoryAccess and jdk/internal/misc/CDS,
// SPEC_FULL.md §4.7.1: so bootstrapping java.base classes that reference
// them during <clinit> does not fail linking, even though this VM
// implements neither the foreign-memory API nor class-data sharing.
// Grounded on the teacher's jdkInternalMiscScopedMemoryAccess.go, extended
// to cover CDS per original_source/src/runtime/native/internal_misc_cds.rs.
package gfunction

func loadInternalMisc() {
	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.<clinit>()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["jdk/internal/misc/CDS.registerNatives()V"] = GMeth{GFunction: justReturn}
	MethodSignatures["jdk/internal/misc/CDS.isDumpingClassList0()Z"] = GMeth{GFunction: returnFalse}
	MethodSignatures["jdk/internal/misc/CDS.isDumpingArchive0()Z"] = GMeth{GFunction: returnFalse}
	MethodSignatures["jdk/internal/misc/CDS.isSharingEnabled0()Z"] = GMeth{GFunction: returnFalse}
}

func returnFalse([]interface{}) interface{} { return int64(0) }
