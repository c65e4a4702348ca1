/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file replaces the teacher's classloader.go/CPutils.go wholesale: it
// keeps their shape (a named Classloader, a shared method-area registry,
// LoadClassFromBytes entry point, a normalizeClassReference
// helper) but rebuilds every internal piece against this module's ParsedClass
// / ConstantPool / Class model instead of jacobin's cpEntry/CPool tables.
package classloader

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brinestone/stackvm/vmerr"
)

// ModuleLoader is the capability the registry needs to turn a binary class
// name into raw .class bytes; concrete implementations (a directory on the
// classpath, a zip/jar archive) live in package modarchive.
type ModuleLoader interface {
	// LoadClassBytes returns the raw bytes of binaryName+".class", or an
	// error if this loader does not contain that class.
	LoadClassBytes(binaryName string) ([]byte, error)
}

// Classloader names one of the three conventional loader roles (spec.md
// §4.4's "Bootstrap, Extension, Application" delegation model) and the
// ordered list of module sources it searches.
type Classloader struct {
	Name    string
	Parent  *Classloader
	Loaders []ModuleLoader
}

var (
	// BootstrapCL loads java.base and friends. A registry searches its
	// own classloader's Loaders first and then each Parent in turn, so
	// BootstrapCL is searched last.
	BootstrapCL = &Classloader{Name: "bootstrap"}
	AppCL       = &Classloader{Name: "app", Parent: BootstrapCL}
)

// Registry is the shared method area (spec.md §3.1): every linked class,
// keyed by binary name, visible to every classloader (this VM does not
// model per-loader namespace splitting beyond the delegation order above).
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	cl      *Classloader
}

// NewRegistry returns a registry that resolves classes through cl's loader
// chain (cl, then cl.Parent, and so on up to BootstrapCL).
func NewRegistry(cl *Classloader) *Registry {
	return &Registry{classes: make(map[string]*Class), cl: cl}
}

// defaultRegistry is the process-wide registry used by package-level
// convenience functions (LoadClassFromBytes, ResolveClass) exactly as
// jacobin's classloader.go exposed package-level Load* functions backed by
// AppCL/BootstrapCL singletons.
var defaultRegistry = NewRegistry(AppCL)

// DefaultRegistry returns the process-wide class registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// normalizeClassReference converts a dotted or slashed class reference
// ("java.lang.Object", "java/lang/Object", "Ljava/lang/Object;") to the
// canonical binary-name form classloader stores classes under.
func normalizeClassReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "L") && strings.HasSuffix(ref, ";") {
		ref = ref[1 : len(ref)-1]
	}
	return strings.ReplaceAll(ref, ".", "/")
}

// Get returns the already-linked class for name, or nil if it has not been
// loaded yet (does not attempt to load it).
func (r *Registry) Get(name string) *Class {
	name = normalizeClassReference(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name]
}

// GetCountOfLoadedClasses reports how many classes this registry has
// linked so far, for -verbose:class style diagnostics.
func (r *Registry) GetCountOfLoadedClasses() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// ResolveClass implements the Resolver interface linker.go depends on:
// fetch an already-linked class, or load, decode and link it on demand.
// This is what gives the "lazy cross-class resolution" of spec.md §9 its
// recursive character — resolving java/lang/String's superclass chain
// triggers exactly the same path as the original LoadClassFromNameOnly.
func (r *Registry) ResolveClass(name string) (*Class, error) {
	name = normalizeClassReference(name)

	r.mu.RLock()
	if cls, ok := r.classes[name]; ok {
		r.mu.RUnlock()
		return cls, nil
	}
	r.mu.RUnlock()

	if strings.HasPrefix(name, "[") {
		return r.resolveArrayClass(name)
	}

	raw, err := r.findClassBytes(name)
	if err != nil {
		return nil, vmerr.NoClassDefFound(name)
	}
	return r.DefineClassFromBytes(name, raw)
}

// resolveArrayClass synthesizes the Class for an array descriptor name
// (e.g. "[I", "[Ljava/lang/String;"), per spec.md §3.4.
func (r *Registry) resolveArrayClass(name string) (*Class, error) {
	object, err := r.ResolveClass("java/lang/Object")
	if err != nil {
		return nil, err
	}
	cloneable, _ := r.ResolveClass(cloneableIface)
	serializable, _ := r.ResolveClass(serializableIface)

	elemType := name[1:]
	cls := synthesizeArrayClass(name, elemType, object, cloneable, serializable)

	r.mu.Lock()
	if existing, ok := r.classes[name]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.classes[name] = cls
	r.mu.Unlock()
	return cls, nil
}

func (r *Registry) findClassBytes(name string) ([]byte, error) {
	for cl := r.cl; cl != nil; cl = cl.Parent {
		for _, loader := range cl.Loaders {
			if b, err := loader.LoadClassBytes(name); err == nil {
				return b, nil
			}
		}
	}
	return nil, vmerr.NoClassDefFound(name)
}

// DefineClassFromBytes decodes and links raw .class bytes under the given
// expected binary name, registering the result in the method area. It is
// re-entrancy safe: if two goroutines race to resolve the same class, the
// loser's freshly linked Class is discarded in favor of whichever finished
// storing first, matching the "a class is loaded exactly once" guarantee
// spec.md §4.4 assumes elsewhere (vtable/statics identity).
func (r *Registry) DefineClassFromBytes(expectedName string, raw []byte) (*Class, error) {
	pc, err := Decode(raw)
	if err != nil {
		log.Debug().Str("class", expectedName).Err(err).Msg("class decode failed")
		return nil, err
	}

	actualName := pc.CP.ClassName(pc.ThisClass)
	if actualName != expectedName {
		return nil, vmerr.New("java/lang/NoClassDefFoundError",
			"%s (wrong name: %s)", expectedName, actualName)
	}

	cls, err := DefineClass(actualName, pc, r)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.classes[actualName]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.classes[actualName] = cls
	r.mu.Unlock()

	log.Debug().Str("class", actualName).Int("methods", len(cls.Methods)).Msg("class linked")
	return cls, nil
}

// LoadClassFromBytes is the package-level convenience entry point over
// DefaultRegistry, named to match the teacher's LoadClassFromBytes.
func LoadClassFromBytes(name string, raw []byte) (*Class, error) {
	return defaultRegistry.DefineClassFromBytes(normalizeClassReference(name), raw)
}

// ResolveClass is the package-level convenience entry point over
// DefaultRegistry.
func ResolveClass(name string) (*Class, error) {
	return defaultRegistry.ResolveClass(name)
}
