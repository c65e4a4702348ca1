/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file drives the class-initialization state machine of spec.md
// §4.4.4 to completion: initialize every superclass first, then any
// directly-implemented interface that declares a default method, then run
// this class's own <clinit> (if any) exactly once, caching success or
// failure.
package classloader

// ClinitRunner executes a class's <clinit> method body. The jvm package
// supplies the real implementation (pushing a frame and running the
// interpreter loop); tests can supply a stub.
type ClinitRunner func(cls *Class) error

// declaresDefaultMethod reports whether iface declares at least one
// non-static, non-abstract method — a Java 8+ default method. Per spec.md
// §4.4.4, only such interfaces are initialized ahead of an implementing
// class; a marker interface (or one with only abstract/static methods)
// is never initialized just because a class implements it.
func declaresDefaultMethod(iface *Class) bool {
	for _, m := range iface.Methods {
		if !m.IsStatic() && !m.IsAbstract() {
			return true
		}
	}
	return false
}

// InitClass runs spec.md §4.4.4's algorithm for cls on behalf of threadID,
// recursing into cls's superclass and any directly-implemented interface
// that declares a default method first (a class is never "initialized"
// while any of those are still not-initialized). It is idempotent and safe
// to call from every active-use site (new, getstatic/putstatic,
// invokestatic, and reflective instantiation).
func InitClass(cls *Class, threadID int64, run ClinitRunner) error {
	if cls == nil {
		return nil
	}
	if cls.Super != nil {
		if err := InitClass(cls.Super, threadID, run); err != nil {
			return err
		}
	}
	for _, iface := range cls.Interfaces {
		if !declaresDefaultMethod(iface) {
			continue
		}
		if err := InitClass(iface, threadID, run); err != nil {
			return err
		}
	}

	if err := cls.EnsureInitializedErr(); err != nil {
		return err
	}
	if cls.State() == Initialized {
		return nil
	}

	if !cls.beginInit(threadID) {
		// either another thread now owns initialization and beginInit
		// already blocked until it finished, or this thread is already
		// running this class's own <clinit> reentrantly — either way
		// there is nothing left for this call to do.
		return cls.EnsureInitializedErr()
	}

	clinit := cls.FindMethod("<clinit>", "()V")
	var err error
	if clinit != nil && run != nil {
		err = run(cls)
	}
	cls.finishInit(err)
	return err
}
