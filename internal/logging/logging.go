// Package logging configures the process-wide zerolog logger. It carries
// only the level/format/component core of the teacher's logging package;
// the teacher's rotating file writer and in-memory broadcaster exist to
// serve its web UI and have no equivalent here (see DESIGN.md).
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Config controls logger initialization.
type Config struct {
	// Level is one of trace|debug|info|warn|error (validated by
	// internal/config before reaching here).
	Level string
	// Component is attached to every log line as a "component" field.
	Component string
}

// Init configures zerolog's globals and returns the configured logger.
// Format is chosen automatically: a console writer when stderr is a TTY,
// structured JSON otherwise, matching the teacher's selectWriter.
func Init(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var out io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	builder := zerolog.New(out).With().Timestamp()

	component := strings.TrimSpace(cfg.Component)
	if component != "" {
		builder = builder.Str("component", component)
	}

	logger := builder.Logger()
	log.Logger = logger
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		fmt.Fprintf(os.Stderr, "logging: invalid level %q; using \"info\"\n", level)
		return zerolog.InfoLevel
	}
}
