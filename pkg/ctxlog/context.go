package ctxlog

import (
	"github.com/rs/zerolog"
)

func Op(logger zerolog.Logger, op string) zerolog.Logger {
	return logger.With().Str("op", op).Logger()
}

// Action tags the logger with the message action being served.
func Action(logger zerolog.Logger, op string, action string) zerolog.Logger {
	return logger.With().Str("op", op).Str("action", action).Logger()
}
