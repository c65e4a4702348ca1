/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package modarchive implements component I, SPEC_FULL.md §4.4.5: two
// concrete classloader.ModuleLoader implementations feeding the bootstrap
// and application classloaders' Loaders lists (spec.md §4.4) — one reading
// class files out of a zip/jar-shaped archive, one walking a classpath
// directory tree. Both satisfy classloader.ModuleLoader's single
// LoadClassBytes(binaryName string) ([]byte, error) capability; the
// richer two-method (Packages/ReadClass) shape the expanded specification
// first sketched collapsed into this one method once the registry's own
// findClassBytes loop (classloader/registry.go) turned out to need only a
// single lookup per loader, not package enumeration.
package modarchive

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/brinestone/stackvm/vmerr"
)

// classEntryPath turns a binary class name ("java/lang/Object") into the
// conventional archive/directory member path ("java/lang/Object.class").
func classEntryPath(binaryName string) string {
	return binaryName + ".class"
}

// ArchiveLoader reads class files out of a jar/zip-shaped module archive
// (spec.md §6.2's "-cp some.jar" form), using klauspost/compress's
// zip reader rather than the standard library's for the faster inflate
// path the rest of the corpus reaches for when it touches zip at all.
type ArchiveLoader struct {
	path string

	mu      sync.Mutex
	reader  *zip.Reader
	file    *os.File
	entries map[string]*zip.File
}

// OpenArchive opens path (a .jar/.zip module archive) and indexes its
// entries by name, ready to serve LoadClassBytes lookups.
func OpenArchive(path string) (*ArchiveLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		entries[zf.Name] = zf
	}
	return &ArchiveLoader{path: path, reader: zr, file: f, entries: entries}, nil
}

// LoadClassBytes implements classloader.ModuleLoader.
func (a *ArchiveLoader) LoadClassBytes(binaryName string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	zf, ok := a.entries[classEntryPath(binaryName)]
	if !ok {
		return nil, vmerr.NoClassDefFound(binaryName)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close releases the archive's open file handle.
func (a *ArchiveLoader) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// DirectoryLoader walks a classpath directory tree for binaryName+".class"
// files (spec.md §6.3's "-cp some/dir" form): no index is built up front,
// each lookup stats the expected path directly, since an unpacked
// classpath directory is not expected to hold enough entries that an
// in-memory index would pay for itself the way ArchiveLoader's does for a
// compressed jar.
type DirectoryLoader struct {
	root string
}

// NewDirectoryLoader returns a loader rooted at root.
func NewDirectoryLoader(root string) *DirectoryLoader {
	return &DirectoryLoader{root: root}
}

// LoadClassBytes implements classloader.ModuleLoader.
func (d *DirectoryLoader) LoadClassBytes(binaryName string) ([]byte, error) {
	full := filepath.Join(d.root, filepath.FromSlash(classEntryPath(binaryName)))
	if !strings.HasPrefix(full, filepath.Clean(d.root)+string(filepath.Separator)) {
		return nil, vmerr.NoClassDefFound(binaryName)
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, vmerr.NoClassDefFound(binaryName)
	}
	return b, nil
}
