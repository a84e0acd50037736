// Copyright (C) 2015-2016  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

// Package logging sets up the process-wide logger at one of three levels —
// silent, info, debug — the same three steps the teacher's infof/debugf
// verbosity scheme used, just backed by zerolog instead of fmt.Printf.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors the teacher's "verbose int" scheme: 0 silent, 1 info,
// 2+ debug (the teacher's separate "progress of long-running operations"
// step 2 folds into Debug here — gitbackend's ProgressFunc is wired
// independently of the logger).
type Level int

const (
	Silent Level = iota
	Info
	Debug
)

// New builds a logger writing to stderr at the given level.
func New(level Level) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	logger := zerolog.New(w).With().Timestamp().Logger()

	switch {
	case level <= Silent:
		logger = logger.Level(zerolog.Disabled)
	case level == Info:
		logger = logger.Level(zerolog.InfoLevel)
	default:
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}

// LevelFromVerbosity maps the countFlag-style (-v repeated, -q repeated)
// net verbosity the CLI parses into a Level, matching the teacher's
// "verbose -= quiet" arithmetic before branching on thresholds.
func LevelFromVerbosity(v int) Level {
	switch {
	case v <= 0:
		return Silent
	case v == 1:
		return Info
	default:
		return Debug
	}
}
