/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package modarchive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryLoaderReadsClassBytes(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "com", "example")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	if err := os.WriteFile(filepath.Join(pkgDir, "Main.class"), want, 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewDirectoryLoader(dir)
	got, err := loader.LoadClassBytes("com/example/Main")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDirectoryLoaderMissingClass(t *testing.T) {
	loader := NewDirectoryLoader(t.TempDir())
	_, err := loader.LoadClassBytes("com/example/Missing")
	assert.Error(t, err)
}

func TestDirectoryLoaderRejectsEscapingPath(t *testing.T) {
	loader := NewDirectoryLoader(t.TempDir())
	_, err := loader.LoadClassBytes("../../etc/passwd")
	assert.Error(t, err)
}

// writeTestJar builds a minimal, standard-library-authored zip archive (the
// package under test reads archives with klauspost/compress, but a zip file
// written by the standard library is byte-identical in format, so it is a
// faithful fixture without needing to duplicate the writer half).
func writeTestJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveLoaderReadsClassBytes(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")
	want := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x41}
	writeTestJar(t, jarPath, map[string][]byte{
		"com/example/Main.class": want,
	})

	loader, err := OpenArchive(jarPath)
	assert.NoError(t, err)
	defer loader.Close()

	got, err := loader.LoadClassBytes("com/example/Main")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArchiveLoaderMissingClass(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "app.jar")
	writeTestJar(t, jarPath, map[string][]byte{
		"com/example/Other.class": {0x01},
	})

	loader, err := OpenArchive(jarPath)
	assert.NoError(t, err)
	defer loader.Close()

	_, err = loader.LoadClassBytes("com/example/Main")
	assert.Error(t, err)
}
