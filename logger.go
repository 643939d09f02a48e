package coldbase

import (
	"log/slog"
	"os"
)

var logLevel = new(slog.LevelVar)

// ConfigureLogging sets up the global default logger with a TextHandler and configures
// the log level from the COLDBASE_LOG_LEVEL environment variable, defaulting to Info.
// Applications opt into this at startup; library code never calls it implicitly.
func ConfigureLogging() {
	logLevel.Set(slog.LevelInfo)
	switch os.Getenv("COLDBASE_LOG_LEVEL") {
	case "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "WARN":
		logLevel.Set(slog.LevelWarn)
	case "ERROR":
		logLevel.Set(slog.LevelError)
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

// SetLogLevel adjusts the level of the logger configured by ConfigureLogging.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}
