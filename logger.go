package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ttacon/chalk"
)

var (
	errorLogger  *log.Logger
	errorLogPath string
	errorLogOnce sync.Once

	debugLogger  *log.Logger
	debugLogPath string
	debugLogOnce sync.Once

	// logDir is where error and debug logs are created on first use.
	logDir = "logs"

	// colorConsole prefixes console lines with ANSI colours.
	colorConsole = true
)

func setupLogging(debug bool) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("could not create log directory: %v", err)
	}
	ts := time.Now().Format("20060102-150405")

	errorLogPath = filepath.Join(logDir, fmt.Sprintf("error-%s.log", ts))
	errorLogOnce = sync.Once{}
	errorLogger = log.New(os.Stdout, "", log.LstdFlags)
	log.SetOutput(errorLogger.Writer())

	setDebugLogging(debug)
}

// openErrorLog tees the error logger into its file the first time something
// is worth keeping.
func openErrorLog() {
	errorLogOnce.Do(func() {
		if f, err := os.Create(errorLogPath); err == nil {
			errorLogger.SetOutput(io.MultiWriter(os.Stdout, f))
			log.SetOutput(errorLogger.Writer())
		}
	})
}

func tag(c chalk.Color, s string) string {
	if !colorConsole {
		return s
	}
	return c.Color(s)
}

func logError(format string, v ...any) {
	if errorLogger == nil {
		log.Printf("error: "+format, v...)
		return
	}
	openErrorLog()
	errorLogger.Printf("%s %s", tag(chalk.Red, "error:"), fmt.Sprintf(format, v...))
}

func logWarn(format string, v ...any) {
	if errorLogger == nil {
		log.Printf("warning: "+format, v...)
		return
	}
	openErrorLog()
	errorLogger.Printf("%s %s", tag(chalk.Yellow, "warning:"), fmt.Sprintf(format, v...))
}

func logInfo(format string, v ...any) {
	if errorLogger == nil {
		log.Printf(format, v...)
		return
	}
	errorLogger.Printf("%s %s", tag(chalk.Cyan, "info:"), fmt.Sprintf(format, v...))
}

func logDebug(format string, v ...any) {
	if debugLogger == nil {
		return
	}
	debugLogOnce.Do(func() {
		if f, err := os.Create(debugLogPath); err == nil {
			debugLogger.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	})
	debugLogger.Printf("%s %s", tag(chalk.Magenta, "debug:"), fmt.Sprintf(format, v...))
}

func setDebugLogging(enabled bool) {
	if !enabled {
		debugLogger = nil
		return
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("could not create log directory: %v", err)
	}
	ts := time.Now().Format("20060102-150405")
	debugLogPath = filepath.Join(logDir, fmt.Sprintf("debug-%s.log", ts))
	debugLogOnce = sync.Once{}
	debugLogger = log.New(os.Stdout, "", log.LstdFlags)
}

// logPanic records a recovered panic with its stack.
func logPanic(r any) {
	logError("panic: %v\n%s", r, debug.Stack())
}
