// Package logging bootstraps the process-wide logrus logger from
// config.Config, mirroring the level-parsing the teacher's
// cmd/s3-encryption-proxy/main.go does inline.
package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Configure parses level and format and applies them to logrus's
// standard logger. It is meant to run once, at process startup.
func Configure(level, format string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)

	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q (must be text or json)", format)
	}

	return nil
}

// For returns a component-scoped logger, matching the
// logrus.WithField("component", ...) convention used throughout this
// codebase's managers.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
