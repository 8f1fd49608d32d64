package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var once sync.Once
var logger *logrus.Logger

// Get returns the process-wide logger. The level starts at info and is
// updated once configuration has been read.
func Get() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()

		logger.Out = os.Stderr
		logger.SetLevel(logrus.InfoLevel)

		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: false,
			FullTimestamp: true,
			PadLevelText:  true,
		})
	})

	return logger
}

// SetLevel parses and applies a level name such as "debug" or "warn".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Get().SetLevel(lvl)
	return nil
}

// SetFormat switches between the "text" and "json" formatters.
func SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		Get().SetFormatter(&logrus.TextFormatter{FullTimestamp: true, PadLevelText: true})
	case "json":
		Get().SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects log output. Useful for testing.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}
