package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New returns a structured logger writing to stdout with source location
// enabled. Format "json" selects the JSON handler; anything else a console
// handler. Level should be a valid slog level string: DEBUG, INFO, WARN,
// ERROR. Unrecognized values default to INFO.
func New(level, format string) *slog.Logger {
	noColor := !isatty.IsTerminal(os.Stdout.Fd())
	return newLogger(os.Stdout, level, format, noColor)
}

func newLogger(w io.Writer, level, format string, noColor bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       lvl,
			ReplaceAttr: trimSource,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		AddSource:   true,
		Level:       lvl,
		ReplaceAttr: trimSource,
		NoColor:     noColor,
	}))
}

// trimSource keeps only the base name of the source file.
func trimSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
	}
	return a
}
