/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command stackvm is component K, SPEC_FULL.md §2: the executable entry
// point that wires config, modarchive, classloader, gfunction and jvm
// together, matching the teacher's main.go startup sequence (parse
// options, build the classpath's loaders, load gfunction's native table,
// run the main class, exit with the appropriate status code).
package main

import (
	"fmt"
	"os"

	"github.com/brinestone/stackvm/classloader"
	"github.com/brinestone/stackvm/config"
	"github.com/brinestone/stackvm/gfunction"
	"github.com/brinestone/stackvm/globals"
	"github.com/brinestone/stackvm/jvm"
	"github.com/brinestone/stackvm/modarchive"
	"github.com/brinestone/stackvm/shutdown"
	"github.com/brinestone/stackvm/trace"
)

func main() {
	trace.Init()
	g := globals.InitGlobals("stackvm")

	root := config.NewRootCommand(g)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Exit(shutdown.JVM_ERROR)
		return
	}
	if g.ExitNow {
		return
	}

	if err := addClasspathLoaders(g); err != nil {
		fmt.Fprintln(os.Stderr, err)
		shutdown.Exit(shutdown.CLASS_EXCEPTION)
		return
	}

	reg := classloader.DefaultRegistry()
	vm := jvm.NewVM(reg)
	gfunction.Install(vm.Heap, reg)

	if err := jvm.StartMain(vm, g.MainClass, g.AppArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Exception in thread \"main\" %v\n", err)
		shutdown.Exit(shutdown.JVM_EXCEPTION)
		return
	}
	shutdown.Exit(shutdown.OK)
}

// addClasspathLoaders attaches one modarchive loader per --cp/--p entry to
// the application classloader, directories via modarchive.DirectoryLoader
// and jar/zip archives via modarchive.ArchiveLoader, per spec.md §6.2/§6.3.
func addClasspathLoaders(g *globals.Globals) error {
	for _, path := range append(append([]string{}, g.Classpath...), g.ModulePaths...) {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			classloader.AppCL.Loaders = append(classloader.AppCL.Loaders, modarchive.NewDirectoryLoader(path))
			continue
		}
		archive, err := modarchive.OpenArchive(path)
		if err != nil {
			return err
		}
		classloader.AppCL.Loaders = append(classloader.AppCL.Loaders, archive)
	}
	return nil
}
