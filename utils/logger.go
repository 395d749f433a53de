package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Logger provides structured, leveled logging throughout the application.
// Messages carry an optional component tag, e.g. "[ebay] fetch failed".
type Logger struct {
	component string
	out       *log.Logger
	errOut    *log.Logger
}

// NewLogger creates a Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return &Logger{
		out:    log.New(os.Stdout, "", 0),
		errOut: log.New(os.Stderr, "", 0),
	}
}

// WithComponent returns a copy of the logger that prefixes every message
// with the given component tag.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{component: name, out: l.out, errOut: l.errOut}
}

func (l *Logger) prefix(msg string) string {
	if l.component == "" {
		return msg
	}
	return "[" + l.component + "] " + msg
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", timestamp(), l.prefix(format)), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", timestamp(), l.prefix(format)), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.errOut.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", timestamp(), l.prefix(format)), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.out.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", timestamp(), l.prefix(format)), args...)
}
