/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinestone/stackvm/globals"
)

// captureStderr redirects os.Stderr for the duration of fn and returns
// everything written to it.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	normal := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	require.NoError(t, w.Close())
	os.Stderr = normal
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestShowFrameStackWhenPreviouslyShown(t *testing.T) {
	globals.InitGlobals("test")
	globals.GetGlobalRef().JvmFrameStackShown = true

	th := CreateThread()
	out := captureStderr(t, func() { showFrameStack(&th) })
	assert.Empty(t, out)
}

func TestShowFrameStackWithEmptyStack(t *testing.T) {
	globals.InitGlobals("test")
	th := CreateThread()

	out := captureStderr(t, func() { showFrameStack(&th) })
	assert.Equal(t, "no further data available\n", out)
}

func TestShowFrameStackWithOneEntry(t *testing.T) {
	globals.InitGlobals("test")
	th := CreateThread()
	f := CreateFrame(1)
	f.MethName = "main"
	f.ClName = "testClass"
	f.PC = 42
	require.NoError(t, PushFrame(th.Stack, f, 0))

	out := captureStderr(t, func() { showFrameStack(&th) })
	assert.Equal(t, "Method: testClass.main                           PC: 042\n", out)
}

func TestShowGoStackWhenPreviouslyCaptured(t *testing.T) {
	globals.InitGlobals("test")
	g := globals.GetGlobalRef()
	g.GoStackShown = false
	g.ErrorGoStack = "goroutine 1 [running]:\nsomefunc()"

	out := captureStderr(t, func() { showGoStackTrace(nil) })
	assert.Contains(t, out, "goroutine 1 [running]:")
}

func TestShowGoStackWhenPreviouslyShown(t *testing.T) {
	globals.InitGlobals("test")
	g := globals.GetGlobalRef()
	g.GoStackShown = true
	g.ErrorGoStack = "goroutine 1 [running]:\nsomefunc()"

	out := captureStderr(t, func() { showGoStackTrace(nil) })
	assert.Empty(t, out)
}

func TestShowPanicCause(t *testing.T) {
	globals.InitGlobals("test")
	globals.GetGlobalRef().PanicCauseShown = false
	cause := errors.New("error causing panic")

	out := captureStderr(t, func() { showPanicCause(cause) })
	assert.Contains(t, out, "error causing panic")
}

func TestShowPanicCauseAfterAlreadyShown(t *testing.T) {
	globals.InitGlobals("test")
	globals.GetGlobalRef().PanicCauseShown = true
	cause := errors.New("error causing panic")

	out := captureStderr(t, func() { showPanicCause(cause) })
	assert.Empty(t, out)
}

func TestShowPanicCauseNil(t *testing.T) {
	globals.InitGlobals("test")
	globals.GetGlobalRef().PanicCauseShown = false

	out := captureStderr(t, func() { showPanicCause(nil) })
	assert.True(t, strings.Contains(out, "error: go panic -- cause unknown"))
}
