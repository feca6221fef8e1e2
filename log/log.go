// Package log provides loggers for modular components.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv is environment variable that enables debug logging.
const DebugEnv = "MODULAR_DEBUG"

var debug bool

func init() {
	debug = Debug()
}

// Debug returns true if debug logging is enabled by environment.
func Debug() bool {
	v, err := strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		return false
	}
	return v
}

// GetLogger returns a new logger instance. Debug level is set if
// MODULAR_DEBUG environment variable is true.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Discard returns logger that drops all entries.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
