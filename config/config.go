/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package config implements component L, SPEC_FULL.md §2: turning
// command-line arguments and the JDK's conventional environment variables
// (JAVA_TOOL_OPTIONS, _JAVA_OPTIONS, JDK_JAVA_OPTIONS) into a populated
// globals.Globals. The teacher's own cmd/ has no third-party CLI library
// at all (a hand-rolled getEnvArgs/HandleCli/LoadOptionsTable option
// table); this port instead follows the cobra-based command/flag pattern
// the retrieval pack's saferwall-pe cmd/pedumper.go shows for a real
// single-binary CLI tool, matching SPEC_FULL.md's ambient-stack section.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brinestone/stackvm/globals"
	"github.com/brinestone/stackvm/trace"
)

var (
	verbose      bool
	showVersion  bool
	strictJDK    bool
	classpathArg string
	modulePath   string
	maxFrames    int
)

// envVarNames mirrors the JDK's own precedence order for options picked up
// from the environment rather than the command line, matching the
// teacher's getEnvArgs (JDK_JAVA_OPTIONS takes precedence, appended last).
var envVarNames = []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"}

// EnvArgs concatenates every set JVM-convention environment variable's
// value, space-separated, in envVarNames order — the same behavior the
// teacher's getEnvArgs implements, kept here as a standalone helper since
// it has no cobra dependency of its own.
func EnvArgs() string {
	var parts []string
	for _, name := range envVarNames {
		if v := os.Getenv(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// NewRootCommand builds the "stackvm [flags] mainClass [args...]" cobra
// command tree. g is the Globals instance this command's Execute populates;
// callers construct it via globals.InitGlobals so tests can pass a fresh
// instance per case, the way the teacher's cli_test.go resets Global between
// tests.
func NewRootCommand(g *globals.Globals) *cobra.Command {
	root := &cobra.Command{
		Use:   g.VMName + " [flags] mainClass [args...]",
		Short: g.VMName + " -- a JVM-17-compatible bytecode virtual machine",
		Long:  g.VMName + " loads, links and executes JVM class files.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable FINE-level tracing")
	root.Flags().BoolVar(&showVersion, "showversion", false, "print version information and continue")
	root.Flags().BoolVar(&strictJDK, "strict", false, "reject behavior the JDK itself would reject")
	root.Flags().StringVar(&classpathArg, "cp", "", "classpath: a directory or a jar/zip archive")
	root.Flags().StringVar(&modulePath, "p", "", "module path")
	root.Flags().IntVar(&maxFrames, "max-frame-depth", 0, "override the default frame-stack depth limit (0 = default)")

	return root
}

func run(cmd *cobra.Command, g *globals.Globals, args []string) error {
	g.Lock()
	defer g.Unlock()

	if verbose {
		trace.SetLogLevel(trace.FINE)
	}
	g.StrictJDK = strictJDK
	if classpathArg != "" {
		g.Classpath = strings.Split(classpathArg, string(os.PathListSeparator))
	}
	if modulePath != "" {
		g.ModulePaths = strings.Split(modulePath, string(os.PathListSeparator))
	}
	if maxFrames > 0 {
		g.MaxFrameDepth = maxFrames
	}

	if showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "%s v.%s\n", g.VMName, g.VMVersion)
		g.ExitNow = true
		return nil
	}

	if len(args) == 0 {
		g.ExitNow = true
		return cmd.Usage()
	}
	g.MainClass = strings.ReplaceAll(args[0], ".", "/")
	g.AppArgs = args[1:]
	return nil
}

// ShowCopyright writes the VM's startup banner to w, matching the
// teacher's showCopyright() called from HandleCli before option parsing.
func ShowCopyright(w *os.File, g *globals.Globals) {
	fmt.Fprintf(w, "%s v.%s\n", g.VMName, g.VMVersion)
	fmt.Fprintln(w, "All rights reserved.")
}
