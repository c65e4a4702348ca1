/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the leveled logger every other package calls into
// instead of fmt.Println. It keeps the teacher's shape (a package-level
// Log function, a small level enum, a global minimum level) but is backed
// by github.com/rs/zerolog rather than hand-rolled formatting, matching the
// logging stack the example corpus reaches for (rgehrsitz-rex_claude).
package trace

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level mirrors the granularity jacobin's own log package exposes: fine
// detail through severe failures.
type Level int

const (
	FINEST Level = iota
	FINE
	CONFIG
	INFO
	WARNING
	SEVERE
)

var levelNames = map[Level]string{
	FINEST:  "FINEST",
	FINE:    "FINE",
	CONFIG:  "CONFIG",
	INFO:    "INFO",
	WARNING: "WARNING",
	SEVERE:  "SEVERE",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

var (
	mu         sync.Mutex
	minLevel   = INFO
	logger     zerolog.Logger
	initOnce   sync.Once
	sinkWriter io.Writer = os.Stderr
)

func toZerolog(l Level) zerolog.Level {
	switch l {
	case FINEST, FINE, CONFIG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARNING:
		return zerolog.WarnLevel
	case SEVERE:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init sets up the global logger. It is safe to call more than once; only
// the first call takes effect, matching jacobin's log.Init() being called
// once from main() and again defensively from tests.
func Init() {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		logger = zerolog.New(sinkWriter).With().Timestamp().Logger()
	})
}

// SetOutput redirects the sink (tests use this to capture log output the
// way cli_test.go redirects os.Stderr around HandleCli).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sinkWriter = w
	logger = zerolog.New(sinkWriter).With().Timestamp().Logger()
}

// SetLogLevel sets the minimum level that will actually be emitted.
func SetLogLevel(l Level) error {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	return nil
}

// LogLevel returns the current minimum emitted level.
func LogLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// Log emits msg at the given level if it is at or above the configured
// minimum. It returns an error only to match the teacher's signature
// (jacobin's log.Log returns error so call sites can `_ = log.Log(...)`);
// stackvm's implementation never fails.
func Log(msg string, level Level) error {
	mu.Lock()
	cur := minLevel
	mu.Unlock()
	if level < cur {
		return nil
	}
	Init()
	logger.WithLevel(toZerolog(level)).Str("level", level.String()).Msg(msg)
	return nil
}

// Trace is an alias some newer jacobin call sites use in place of Log;
// kept distinct so both spellings compile against the same backend.
func Trace(msg string, level Level) error {
	return Log(msg, level)
}
