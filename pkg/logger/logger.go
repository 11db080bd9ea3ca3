package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

// Init configures the process logger. Development gets human-readable text,
// everything else gets JSON.
func Init(environment string) {
	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	log = slog.New(handler)
}

func get() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at error level. A single bare error argument is promoted to an
// "error" attribute so call sites can pass the error directly.
func Error(msg string, args ...any) {
	get().Error(msg, normalize(args)...)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	get().Error(msg, normalize(args)...)
	os.Exit(1)
}

func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
	}
	return args
}
