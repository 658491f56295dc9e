package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "roomeo"

// New builds the command line logger. Entries go to stderr so command output
// on stdout stays clean. JSON entries carry the application name for log
// shippers; debug mode adds stack traces to errors.
func New(json bool, debug bool) (*zap.Logger, error) {
	encoder := zapcore.EncoderConfig{
		MessageKey: "step",

		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.RFC3339TimeEncoder,

		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,

		EncodeDuration: zapcore.StringDurationEncoder,
	}

	cfg := zap.Config{
		Encoding:          "console",
		Level:             zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	if json {
		cfg.Encoding = "json"
		cfg.InitialFields = map[string]any{"app": appName}
	}

	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
		cfg.DisableStacktrace = false
		encoder.StacktraceKey = "stacktrace"
	}

	cfg.EncoderConfig = encoder

	return cfg.Build()
}
