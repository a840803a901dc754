// Package loggertest provides loggers for tests.
package loggertest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"rentalhub/pkg/logger"
)

// New routes output through t.Log so it only shows up for failing tests.
func New(t testing.TB) logger.ILogger {
	return logger.FromZap(zaptest.NewLogger(t))
}
