// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logger provides application logging backed by zerolog.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger defines the logging interface used throughout the application.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// zerologLogger implements the Logger interface using zerolog.
type zerologLogger struct {
	log zerolog.Logger
}

// New creates a new Logger writing JSON lines to stdout.
func New() Logger {
	return &zerologLogger{
		log: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
}

// NewWithLevel creates a new Logger and sets the global log level.
// Unrecognized level strings fall back to info.
func NewWithLevel(level string) Logger {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return New()
}

func (l *zerologLogger) Debug(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *zerologLogger) Info(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l *zerologLogger) Error(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}
