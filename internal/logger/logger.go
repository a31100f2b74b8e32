package logger

import (
	"os"

	"github.com/phuslu/log"
)

// Setup configures the global logger. format is "console" or "json".
func Setup(level, format string) {
	logger := log.Logger{
		Level:      log.ParseLevel(level),
		Caller:     1,
		TimeFormat: "2006-01-02 15:04:05",
	}
	if format == "json" {
		logger.Writer = &log.IOWriter{Writer: os.Stdout}
	} else {
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	}
	log.DefaultLogger = logger
}
