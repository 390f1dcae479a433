// Package logging builds the zerolog logger shared by the client packages.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Without debug the logger
// is disabled so informational output stays clean.
func New(w io.Writer, debug bool) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
