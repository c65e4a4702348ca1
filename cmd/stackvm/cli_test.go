/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/brinestone/stackvm/config"
	"github.com/brinestone/stackvm/globals"
)

func TestGetEnvArgsWhenAbsent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Unsetenv("_JAVA_OPTIONS")
	os.Unsetenv("JDK_JAVA_OPTIONS")

	if got := config.EnvArgs(); got != "" {
		t.Errorf("EnvArgs() with no JVM env vars set = %q, want empty", got)
	}
}

func TestGetEnvArgsWhenTwoArePresent(t *testing.T) {
	os.Unsetenv("JAVA_TOOL_OPTIONS")
	os.Setenv("_JAVA_OPTIONS", "Hello,")
	os.Setenv("JDK_JAVA_OPTIONS", "stackvm!")
	defer os.Unsetenv("_JAVA_OPTIONS")
	defer os.Unsetenv("JDK_JAVA_OPTIONS")

	if got := config.EnvArgs(); got != "Hello, stackvm!" {
		t.Errorf("EnvArgs() = %q, want %q", got, "Hello, stackvm!")
	}
}

func TestHandleUsageMessage(t *testing.T) {
	g := globals.InitGlobals("stackvm")
	root := config.NewRootCommand(g)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() with no args returned error: %v", err)
	}

	if !g.ExitNow {
		t.Error("running with no main class should have set Globals.ExitNow")
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("expected usage message, got: %s", out.String())
	}
}

func TestHandleShowVersionMessage(t *testing.T) {
	g := globals.InitGlobals("stackvm")
	root := config.NewRootCommand(g)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--showversion"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() with --showversion returned error: %v", err)
	}

	if !g.ExitNow {
		t.Error("--showversion should have set Globals.ExitNow")
	}
	if !strings.Contains(out.String(), "stackvm v.") {
		t.Errorf("expected version banner, got: %s", out.String())
	}
}

func TestHandleMainClassAndArgs(t *testing.T) {
	g := globals.InitGlobals("stackvm")
	root := config.NewRootCommand(g)
	root.SetArgs([]string{"com.example.Main", "arg1", "arg2"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}

	if g.ExitNow {
		t.Error("a main class argument should not set Globals.ExitNow")
	}
	if g.MainClass != "com/example/Main" {
		t.Errorf("MainClass = %q, want %q", g.MainClass, "com/example/Main")
	}
	if len(g.AppArgs) != 2 || g.AppArgs[0] != "arg1" || g.AppArgs[1] != "arg2" {
		t.Errorf("AppArgs = %v, want [arg1 arg2]", g.AppArgs)
	}
}

func TestShowCopyright(t *testing.T) {
	g := globals.InitGlobals("stackvm")

	r, w, _ := os.Pipe()
	config.ShowCopyright(w, g)
	w.Close()

	var out bytes.Buffer
	out.ReadFrom(r)

	if !strings.Contains(out.String(), "All rights reserved.") {
		t.Errorf("copyright output missing expected text: %s", out.String())
	}
}
