// Package diag renders compile errors, runtime errors and GC/debug trace
// lines to stderr. It wraps github.com/fatih/color instead of a structured
// logging framework: this is a CLI/embeddable-library tier, not a service,
// and color is what the rest of the reference corpus's language-engine
// projects reach for in this role.
package diag

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/teascript/tea/pkg/config"
)

// Logger writes diagnostics to an output stream, honoring a Config's color
// and debug settings.
type Logger struct {
	out   io.Writer
	debug bool

	errColor  *color.Color
	warnColor *color.Color
	dimColor  *color.Color
}

// New builds a Logger writing to stderr, colorized per cfg (or fatih/color's
// own isatty detection if cfg leaves Color unset).
func New(cfg *config.Config) *Logger {
	return NewWriter(os.Stderr, cfg)
}

// NewWriter is New with an explicit output stream, for tests and embedders
// that redirect diagnostics elsewhere.
func NewWriter(out io.Writer, cfg *config.Config) *Logger {
	l := &Logger{
		out:       out,
		debug:     cfg.Debug,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
		dimColor:  color.New(color.FgHiBlack),
	}
	if cfg.Color != nil {
		l.errColor.EnableColor()
		l.warnColor.EnableColor()
		l.dimColor.EnableColor()
		if !*cfg.Color {
			l.errColor.DisableColor()
			l.warnColor.DisableColor()
			l.dimColor.DisableColor()
		}
	}
	return l
}

// Error prints a compile/runtime error line in red.
func (l *Logger) Error(format string, args ...any) {
	l.errColor.Fprintf(l.out, format+"\n", args...)
}

// Warn prints a warning line in yellow.
func (l *Logger) Warn(format string, args ...any) {
	l.warnColor.Fprintf(l.out, format+"\n", args...)
}

// Trace prints a dim debug/GC trace line, only when debug mode is on.
func (l *Logger) Trace(format string, args ...any) {
	if !l.debug {
		return
	}
	l.dimColor.Fprintf(l.out, format+"\n", args...)
}

// GCCycle logs one collection cycle's before/after heap size and duration,
// rendering byte counts with humanize.Bytes ("12.3 MB" rather than a raw
// integer) the way pkg/config's Debug flag or the TEA_GC_LOG ambient
// environment variable requests.
func (l *Logger) GCCycle(beforeBytes, afterBytes uint64, nextGC uint64, collected int) {
	if !l.debug {
		return
	}
	l.dimColor.Fprintf(l.out, "-- gc: collected %d objects, %s -> %s (next at %s)\n",
		collected, humanize.Bytes(beforeBytes), humanize.Bytes(afterBytes), humanize.Bytes(nextGC))
}

// GCLogEnabled reports whether the TEA_GC_LOG ambient flag is set, as an
// alternative to cfg.Debug for turning on GC trace lines without threading
// a flag through every call site.
func GCLogEnabled() bool {
	_, ok := os.LookupEnv("TEA_GC_LOG")
	return ok
}

// Fatalf prints a red error line and exits with status 1, used by cmd/tea's
// top-level command handlers.
func Fatalf(format string, args ...any) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
