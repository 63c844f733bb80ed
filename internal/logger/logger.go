// Package logger is a small leveled front for the standard logger. The
// client library logs connection lifecycle events through it; the terminal
// UI redirects it away from the screen.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Level int32

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	currentLevel.Store(int32(l))
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Setup configures output and the standard flag set in one call.
func Setup(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func Debug(format string, v ...interface{}) {
	if Level(currentLevel.Load()) >= LevelDebug {
		output("DEBUG: "+format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if Level(currentLevel.Load()) >= LevelInfo {
		output("INFO: "+format, v...)
	}
}

func Error(format string, v ...interface{}) {
	output("ERROR: "+format, v...)
}

// Fatal logs regardless of level and exits.
func Fatal(format string, v ...interface{}) {
	output("FATAL: "+format, v...)
	os.Exit(1)
}

func output(format string, v ...interface{}) {
	// calldepth 3 skips output and the level wrapper
	log.Output(3, fmt.Sprintf(format, v...))
}
