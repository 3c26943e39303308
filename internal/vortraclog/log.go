/*
Copyright © 2024 the VORTRAC authors.
This file is part of VORTRAC.

VORTRAC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VORTRAC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VORTRAC.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package vortraclog wraps the standard library logger with the
// severity+component tagging the spec requires, and fans every entry out
// to a channel so tests can observe the log stream (spec §6, §8).
package vortraclog

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Severity is the log-entry severity level.
type Severity int

// Severities, in increasing order of urgency.
const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one tagged log message.
type Entry struct {
	Severity  Severity
	Component string
	Message   string
}

// Logger tags messages with a component name and severity, writes them
// through the standard library logger, and fans them out to any
// subscribed observers.
type Logger struct {
	std *log.Logger

	mu   sync.Mutex
	subs []chan Entry
}

// New returns a Logger that writes to os.Stderr via the standard log
// package, the same destination inmaputil's command tree writes to.
func New() *Logger {
	return &Logger{std: log.New(os.Stderr, "", log.LstdFlags)}
}

// Subscribe returns a channel that receives every subsequent log entry.
// The channel is buffered so a slow test reader cannot block logging;
// entries are dropped, not blocked on, once the buffer is full.
func (l *Logger) Subscribe() <-chan Entry {
	ch := make(chan Entry, 256)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch
}

func (l *Logger) emit(sev Severity, component, msg string) {
	l.std.Printf("[%s] %s: %s", sev, component, msg)
	e := Entry{Severity: sev, Component: component, Message: msg}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Infof logs an informational message tagged with component.
func (l *Logger) Infof(component, format string, args ...interface{}) {
	l.emit(Info, component, fmt.Sprintf(format, args...))
}

// Warnf logs a warning tagged with component.
func (l *Logger) Warnf(component, format string, args ...interface{}) {
	l.emit(Warn, component, fmt.Sprintf(format, args...))
}

// Errorf logs an error tagged with component.
func (l *Logger) Errorf(component, format string, args ...interface{}) {
	l.emit(Error, component, fmt.Sprintf(format, args...))
}
