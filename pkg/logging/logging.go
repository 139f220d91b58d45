// Package logging builds the zerolog loggers shared by the dex-swap packages.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// New returns a console logger tagged with the given component name
func New(component string) zerolog.Logger {
	return zerolog.New(output).With().Timestamp().Str("component", component).Logger()
}

// SetVerbose switches all loggers between warn and debug level
func SetVerbose(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// SetLevel sets the global level from a name such as "info" or "debug"
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
