// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package telemetry provides a structured error-reporting channel.
package telemetry

import (
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
)

// Reporter receives structured failure events. Implementations must never
// receive secret material in event properties.
type Reporter interface {
	ReportError(event string, err error, props map[string]string)
}

// loggerReporter implements Reporter on top of the application logger.
type loggerReporter struct {
	logger logger.Logger
}

// NewLoggerReporter creates a Reporter that writes events to the given logger.
func NewLoggerReporter(log logger.Logger) Reporter {
	return &loggerReporter{logger: log}
}

func (r *loggerReporter) ReportError(event string, err error, props map[string]string) {
	if len(props) == 0 {
		r.logger.Error("[telemetry] %s: %v", event, err)
		return
	}
	r.logger.Error("[telemetry] %s: %v (props: %v)", event, err, props)
}

// nopReporter discards all events. Used where reporting is explicitly
// suppressed.
type nopReporter struct{}

// NewNopReporter creates a Reporter that drops every event.
func NewNopReporter() Reporter {
	return nopReporter{}
}

func (nopReporter) ReportError(string, error, map[string]string) {}
