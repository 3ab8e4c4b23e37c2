package builtins

import (
	"strings"

	"go.uber.org/zap"

	"github.com/example/jsexpr/runtime"
)

// createConsoleObject routes console output through logger, one entry per
// call, with the arguments rendered as the REPL would show them.
func createConsoleObject(logger *zap.SugaredLogger) *runtime.Object {
	console := runtime.NewPlainObject()
	setMethod(console, "log", 0, consoleWriter(logger.Info))
	setMethod(console, "info", 0, consoleWriter(logger.Info))
	setMethod(console, "debug", 0, consoleWriter(logger.Debug))
	setMethod(console, "warn", 0, consoleWriter(logger.Warn))
	setMethod(console, "error", 0, consoleWriter(logger.Error))
	return console
}

func consoleWriter(write func(args ...interface{})) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		write(formatArgs(args))
		return runtime.Undefined, nil
	}
}

// formatArgs prints strings bare and everything else inspected.
func formatArgs(args []*runtime.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Type == runtime.TypeString {
			parts[i] = a.Str
			continue
		}
		parts[i] = runtime.Inspect(a)
	}
	return strings.Join(parts, " ")
}
