package runner

import (
	"io"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger on w. It logs warnings and errors,
// and everything down to debug when verbose is set. Writes are serialized
// so files processed in parallel do not interleave.
func NewLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(w),
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
	}
	return zerolog.New(out).Level(level)
}
