package logger

import "go.uber.org/zap/zapcore"

// -v flag counts
const (
	VerbosityUser  = 0 // results, warnings and errors
	VerbosityInfo  = 1 // source reloads, client connects, config changes
	VerbosityDebug = 2 // one line per render pass and HTTP request
	VerbosityTrace = 3 // dropped links and collisions, with caller locations
)

// VerbosityToLevel maps a -v count to the minimum zap level.
// Trace shares DebugLevel and adds caller annotations, see TraceEnabled.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity >= VerbosityDebug:
		return zapcore.DebugLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// TraceEnabled reports whether log lines should carry caller locations
func TraceEnabled(verbosity int) bool {
	return verbosity >= VerbosityTrace
}

// LevelName describes a -v count for banners
func LevelName(verbosity int) string {
	switch {
	case verbosity < VerbosityUser:
		return "Unknown"
	case verbosity == VerbosityUser:
		return "User"
	case verbosity == VerbosityInfo:
		return "Info (-v)"
	case verbosity == VerbosityDebug:
		return "Debug (-vv)"
	case verbosity == VerbosityTrace:
		return "Trace (-vvv)"
	default:
		return "Trace (-vvv+)"
	}
}
