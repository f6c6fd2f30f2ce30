/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"log"
	"os"
)

// A Logger provides logging for an Interface.
//
// The functions Verbosef and Errorf are printf-style functions for
// logging at verbose and error levels.
type Logger struct {
	Verbosef func(format string, args ...any)
	Errorf   func(format string, args ...any)
}

// Log levels for use with NewLogger.
const (
	LogLevelSilent = iota
	LogLevelError
	LogLevelVerbose
)

// DiscardLogf discards a log line.
func DiscardLogf(format string, args ...any) {}

// NewLogger constructs a Logger that writes to stdout. It logs at the
// specified log level and above. It decorates log lines with the log
// level, date, time, and prepend.
func NewLogger(level int, prepend string) *Logger {
	logger := &Logger{DiscardLogf, DiscardLogf}
	logf := func(prefix string) func(string, ...any) {
		return log.New(os.Stdout, prefix+": "+prepend, log.Ldate|log.Ltime).Printf
	}
	if level >= LogLevelVerbose {
		logger.Verbosef = logf("DEBUG")
	}
	if level >= LogLevelError {
		logger.Errorf = logf("ERROR")
	}
	return logger
}
