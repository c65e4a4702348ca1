/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excNames centralizes the binary names of the guest exception and
// error classes the VM raises on the guest's behalf, so that nothing in
// classloader, jvm, heap, or gfunction hand-writes a class-name string
// literal at a throw site.
package excNames

// Guest exception/error binary names (slash-delimited, per spec.md §3.4).
const (
	NullPointerException          = "java/lang/NullPointerException"
	ArithmeticException           = "java/lang/ArithmeticException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException    = "java/lang/NegativeArraySizeException"
	ArrayStoreException           = "java/lang/ArrayStoreException"
	ClassCastException            = "java/lang/ClassCastException"
	NoSuchFieldError              = "java/lang/NoSuchFieldError"
	NoSuchMethodError             = "java/lang/NoSuchMethodError"
	ClassFormatError              = "java/lang/ClassFormatError"
	NoClassDefFoundError          = "java/lang/NoClassDefFoundError"
	ExceptionInInitializerError   = "java/lang/ExceptionInInitializerError"
	CloneNotSupportedException    = "java/lang/CloneNotSupportedException"
	StackOverflowError            = "java/lang/StackOverflowError"
	IllegalMonitorStateException  = "java/lang/IllegalMonitorStateException"
	IllegalArgumentException      = "java/lang/IllegalArgumentException"
	IllegalStateException         = "java/lang/IllegalStateException"
	UnsupportedOperationException = "java/lang/UnsupportedOperationException"
	OutOfMemoryError              = "java/lang/OutOfMemoryError"
	InternalError                 = "java/lang/InternalError"
	Throwable                     = "java/lang/Throwable"
	Exception                     = "java/lang/Exception"
	Error                         = "java/lang/Error"
	RuntimeException              = "java/lang/RuntimeException"
	LinkageError                  = "java/lang/LinkageError"
)
