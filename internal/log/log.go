// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package log is the leveled key=value logger of the cogepd tool.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.Mutex
	logger   *stdlog.Logger
	color    bool
	minLevel = LevelInfo
	now      = time.Now
)

func init() {
	color = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	logger = stdlog.New(colorable.NewColorableStderr(), "", 0)
}

// ParseLevel accepts debug, info and error in any case.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelError:
		return l, nil
	}
	return "", fmt.Errorf("log: unknown level %q", s)
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects the log lines to w, without colours.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = stdlog.New(w, "", 0)
	color = false
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, "", msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, "", msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, "", msg, extended...)
}

// Logger tags every line with a component name. It satisfies
// cogepd.Logger.
type Logger struct {
	component string
}

// Named returns a Logger for component.
func Named(component string) Logger {
	return Logger{component: component}
}

func (l Logger) Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, l.component, msg, kv...)
}

func (l Logger) Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, l.component, msg, kv...)
}

func (l Logger) Error(msg string, kv ...any) {
	logWithLevel(LevelError, l.component, msg, kv...)
}

var levelColors = map[Level]string{
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelError: "\033[31m",
}

func logWithLevel(level Level, component, msg string, kv ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled(level) {
		return
	}

	// 2025-01-01T00:00:00Z [LEVEL] component: msg key=value ...
	tag := "[" + string(level) + "]"
	if color {
		tag = levelColors[level] + tag + "\033[0m"
	}
	line := now().Format(time.RFC3339Nano) + " " + tag + " "
	if component != "" {
		line += component + ": "
	}
	line += msg + formatKVs(kv...)
	logger.Println(line)
}

func enabled(level Level) bool {
	switch minLevel {
	case LevelDebug:
		return true
	case LevelInfo:
		return level == LevelInfo || level == LevelError
	case LevelError:
		return level == LevelError
	default:
		return true
	}
}

func formatKVs(kv ...any) string {
	var b strings.Builder
	// Pairs: key, value, key, value, ...; a trailing key is ignored.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" " + key + "=" + quote(fmt.Sprint(kv[i+1])))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
