/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmerr defines the two exception shapes the interpreter unwinds on
// (spec.md §3.10, §7) and the handful of constructors every other package
// uses to raise them, plus the linkage-time error used by the decoder and
// loader before a guest thread even exists to catch anything.
package vmerr

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/brinestone/stackvm/excNames"
)

// VMException is raised by the VM itself — a null dereference, a divide by
// zero, an out-of-bounds array access, a failed class initializer, and so
// on. ClassName names the guest exception/error class that should appear in
// the guest-visible stack trace; Message is the detail string.
type VMException struct {
	ClassName string
	Message   string
}

func (e *VMException) Error() string {
	if e.Message == "" {
		return e.ClassName
	}
	return fmt.Sprintf("%s: %s", e.ClassName, e.Message)
}

// New builds a VMException for the given guest exception class.
func New(className, format string, args ...interface{}) *VMException {
	return &VMException{ClassName: className, Message: fmt.Sprintf(format, args...)}
}

// NullPointer, Arithmetic, and the rest are thin convenience wrappers used
// at the many throw sites in the interpreter so that each one reads as a
// single expression instead of a three-field struct literal.
func NullPointer(format string, args ...interface{}) *VMException {
	return New(excNames.NullPointerException, format, args...)
}

func Arithmetic(format string, args ...interface{}) *VMException {
	return New(excNames.ArithmeticException, format, args...)
}

func ArrayIndexOutOfBounds(index, length int) *VMException {
	return New(excNames.ArrayIndexOutOfBoundsException,
		"Index %d out of bounds for length %d", index, length)
}

func NegativeArraySize(size int) *VMException {
	return New(excNames.NegativeArraySizeException, "%d", size)
}

func ArrayStore(className string) *VMException {
	return New(excNames.ArrayStoreException, "%s", className)
}

func ClassCast(from, to string) *VMException {
	return New(excNames.ClassCastException, "class %s cannot be cast to class %s", from, to)
}

func NoSuchField(class, field string) *VMException {
	return New(excNames.NoSuchFieldError, "%s.%s", class, field)
}

func NoSuchMethod(class, method, descriptor string) *VMException {
	return New(excNames.NoSuchMethodError, "%s.%s%s", class, method, descriptor)
}

func NoClassDefFound(class string) *VMException {
	return New(excNames.NoClassDefFoundError, "%s", class)
}

func ExceptionInInitializer(class string, cause error) *VMException {
	msg := class
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", class, cause.Error())
	}
	return New(excNames.ExceptionInInitializerError, "%s", msg)
}

func CloneNotSupported(class string) *VMException {
	return New(excNames.CloneNotSupportedException, "%s", class)
}

func StackOverflow() *VMException {
	return New(excNames.StackOverflowError, "")
}

func IllegalMonitorState(format string, args ...interface{}) *VMException {
	return New(excNames.IllegalMonitorStateException, format, args...)
}

// ClassFormatError is raised by the decoder (spec.md §4.1) and the
// descriptor parser (spec.md §4.2) on malformed input. Unlike VMException,
// it carries the byte offset at which parsing failed and is wrapped with
// github.com/pkg/errors so that a failure deep in a nested attribute parse
// keeps a readable call stack in diagnostic builds.
type ClassFormatError struct {
	Offset  int
	Message string
}

func (e *ClassFormatError) Error() string {
	return fmt.Sprintf("ClassFormatError at offset %d: %s", e.Offset, e.Message)
}

// CFE builds a ClassFormatError at the given byte offset, wrapped so a
// stack trace is attached for `-v` diagnostic runs.
func CFE(offset int, format string, args ...interface{}) error {
	return errors.WithStack(&ClassFormatError{Offset: offset, Message: fmt.Sprintf(format, args...)})
}

// AsVMException converts any error into the VMException that should
// terminate a guest thread: a *VMException passes through unchanged, a
// *ClassFormatError becomes the guest-visible java/lang/ClassFormatError,
// and anything else becomes a generic InternalError.
func AsVMException(err error) *VMException {
	if err == nil {
		return nil
	}
	var vmx *VMException
	if errors.As(err, &vmx) {
		return vmx
	}
	var cfe *ClassFormatError
	if errors.As(err, &cfe) {
		return New(excNames.ClassFormatError, "%s", cfe.Message)
	}
	return New(excNames.InternalError, "%s", err.Error())
}
