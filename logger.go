package typedroutes

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/okairos/typedroutes/config"
)

// NewLogger builds the extension logger from the log settings. Unknown
// levels fall back to info.
func NewLogger(cfg config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", "typedroutes").
		Logger()
}
