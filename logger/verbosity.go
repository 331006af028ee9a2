package logger

import "go.uber.org/zap/zapcore"

// LevelForVerbosity maps the CLI --verbose count to a zap level.
// 0 = warnings and errors only, 1 = info, 2+ = debug.
func LevelForVerbosity(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
