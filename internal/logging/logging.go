package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger defaults to a no-op so library code and tests can log without
// calling Init first.
var Logger = zerolog.Nop()

// Init sets up the global logger. LOG_LEVEL=debug enables debug output.
func Init() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	if os.Getenv("LOG_LEVEL") == "debug" {
		Logger = Logger.Level(zerolog.DebugLevel)
	}
}
