package logutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func ParseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the global logger. format "console" writes human readable
// lines to out; anything else keeps zerolog's JSON output.
func Setup(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseZerologLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339} //nolint:exhaustruct
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "dogview").Logger()
}
