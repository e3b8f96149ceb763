// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log provides leveled logging for the satcore worker binaries.
//
// Time/date are omitted by default because systemd adds them for us
// (SetLogDateTime turns them on). Prefixes follow
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html so
// journald can pick up severity without a separate syslog facility.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	debugWriter io.Writer = os.Stderr
	infoWriter  io.Writer = os.Stderr
	warnWriter  io.Writer = os.Stderr
	errWriter   io.Writer = os.Stderr
)

var (
	debugPrefix = "<7>[DEBUG]    "
	infoPrefix  = "<6>[INFO]     "
	warnPrefix  = "<4>[WARNING]  "
	errPrefix   = "<3>[ERROR]    "
)

var (
	debugLog = log.New(debugWriter, debugPrefix, 0)
	infoLog  = log.New(infoWriter, infoPrefix, 0)
	warnLog  = log.New(warnWriter, warnPrefix, log.Lshortfile)
	errLog   = log.New(errWriter, errPrefix, log.Llongfile)

	debugTimeLog = log.New(debugWriter, debugPrefix, log.LstdFlags)
	infoTimeLog  = log.New(infoWriter, infoPrefix, log.LstdFlags)
	warnTimeLog  = log.New(warnWriter, warnPrefix, log.LstdFlags|log.Lshortfile)
	errTimeLog   = log.New(errWriter, errPrefix, log.LstdFlags|log.Llongfile)
)

// SetLevel restricts output to the given level and everything more severe.
func SetLevel(lvl string) {
	switch lvl {
	case "err", "crit", "fatal":
		warnWriter = io.Discard
		fallthrough
	case "warn":
		infoWriter = io.Discard
		fallthrough
	case "info":
		debugWriter = io.Discard
	case "debug":
		// nothing discarded
	default:
		fmt.Fprintf(os.Stderr, "log: invalid loglevel %q, using \"debug\"\n", lvl)
		SetLevel("debug")
	}
}

// SetLogDateTime toggles date/time prefixes (disabled by default; systemd adds them).
func SetLogDateTime(on bool) {
	logDateTime = on
}

// Logger tags every line with a component name, so several worker
// binaries running under the same supervisor can be told apart in a
// shared log stream.
type Logger struct {
	component string
}

// Component returns a Logger that prefixes every message with name.
func Component(name string) *Logger {
	return &Logger{component: name}
}

func (l *Logger) fmt(v ...interface{}) string {
	if l == nil || l.component == "" {
		return fmt.Sprint(v...)
	}
	return fmt.Sprintf("%s: %s", l.component, fmt.Sprint(v...))
}

func (l *Logger) Debug(v ...interface{}) { Debug(l.fmt(v...)) }
func (l *Logger) Info(v ...interface{})  { Info(l.fmt(v...)) }
func (l *Logger) Warn(v ...interface{})  { Warn(l.fmt(v...)) }
func (l *Logger) Error(v ...interface{}) { Error(l.fmt(v...)) }

func (l *Logger) Debugf(format string, v ...interface{}) { Debug(l.fmt(fmt.Sprintf(format, v...))) }
func (l *Logger) Infof(format string, v ...interface{})  { Info(l.fmt(fmt.Sprintf(format, v...))) }
func (l *Logger) Warnf(format string, v ...interface{})  { Warn(l.fmt(fmt.Sprintf(format, v...))) }
func (l *Logger) Errorf(format string, v ...interface{}) { Error(l.fmt(fmt.Sprintf(format, v...))) }

func Debug(v ...interface{}) {
	if debugWriter == io.Discard {
		return
	}
	if logDateTime {
		debugTimeLog.Output(3, fmt.Sprint(v...))
	} else {
		debugLog.Output(3, fmt.Sprint(v...))
	}
}

func Info(v ...interface{}) {
	if infoWriter == io.Discard {
		return
	}
	if logDateTime {
		infoTimeLog.Output(3, fmt.Sprint(v...))
	} else {
		infoLog.Output(3, fmt.Sprint(v...))
	}
}

func Warn(v ...interface{}) {
	if warnWriter == io.Discard {
		return
	}
	if logDateTime {
		warnTimeLog.Output(3, fmt.Sprint(v...))
	} else {
		warnLog.Output(3, fmt.Sprint(v...))
	}
}

func Error(v ...interface{}) {
	if errWriter == io.Discard {
		return
	}
	if logDateTime {
		errTimeLog.Output(3, fmt.Sprint(v...))
	} else {
		errLog.Output(3, fmt.Sprint(v...))
	}
}

func Debugf(format string, v ...interface{}) { Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { Error(fmt.Sprintf(format, v...)) }

// Fatal logs at error level and terminates the process. Reserved for
// startup failures; worker loops must never call this once running.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	Fatal(fmt.Sprintf(format, v...))
}
