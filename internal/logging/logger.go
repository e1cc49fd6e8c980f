package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/config"
)

// NewLogger creates a structured zerolog.Logger with the service name from
// the config. In dev mode output is human-readable.
func NewLogger(cfg *config.Config, component string) zerolog.Logger {
	var ctx zerolog.Context
	if cfg.DevMode {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp()
	} else {
		ctx = zerolog.New(os.Stdout).With().Timestamp()
	}

	service := cfg.ServiceName
	if service == "" {
		service = component
	}
	ctx = ctx.Str("service", service)

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
