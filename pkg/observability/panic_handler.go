package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic logs a recovered panic with its stack. Call it deferred:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "callback server")
//	    ...
//	}()
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		LogPanic(logger, where, r)
	}
}

// LogPanic logs a value already taken from recover
func LogPanic(logger *Logger, where string, r interface{}) {
	if logger == nil {
		logger = NopLogger()
	}
	logger.WithFields(map[string]interface{}{
		"panic": fmt.Sprint(r),
		"stack": string(debug.Stack()),
		"where": where,
	}).Error("PANIC recovered")
}
