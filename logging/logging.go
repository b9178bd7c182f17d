package logging

import (
	"log/slog"
	"os"
	"reflect"
)

// SubSystem tags every log record with the component that emitted it.
type SubSystem string

const (
	Config     SubSystem = "Config"
	Snapshot   SubSystem = "Snapshot"
	Optimizer  SubSystem = "Optimizer"
	Reconciler SubSystem = "Reconciler"
	Sink       SubSystem = "Sink"
	System     SubSystem = "System"
)

// UseJSONHandler switches the process logger to structured JSON on stderr.
func UseJSONHandler(level slog.Level) {
	var logLevel slog.LevelVar
	logLevel.Set(level)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: &logLevel,
	})))
}

func Warn(msg string, subSystem SubSystem, keyvals ...interface{}) {
	withSubsystem := append([]interface{}{"subsystem", subSystem}, keyvals...)
	slog.Warn(msg, withSubsystem...)
}

func Info(msg string, subSystem SubSystem, keyvals ...interface{}) {
	withSubsystem := append([]interface{}{"subsystem", subSystem}, keyvals...)
	slog.Info(msg, withSubsystem...)
}

func Error(msg string, subSystem SubSystem, keyvals ...interface{}) {
	withSubsystem := append([]interface{}{"subsystem", subSystem}, keyvals...)

	// Check for error values and add their types
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			if err, ok := keyvals[i+1].(error); ok {
				errorType := reflect.TypeOf(err).String()
				withSubsystem = append(withSubsystem, "error-type", errorType)
			}
		}
	}

	slog.Error(msg, withSubsystem...)
}
func Debug(msg string, subSystem SubSystem, keyvals ...interface{}) {
	withSubsystem := append([]interface{}{"subsystem", subSystem}, keyvals...)
	slog.Debug(msg, withSubsystem...)
}
