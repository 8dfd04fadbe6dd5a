// Package xlog builds a log/slog.Handler from a level/format pair, the
// logging surface cmd/xpq exposes as --log-level/--log-format flags.
package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Format is a supported slog output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatLogfmt Format = "logfmt"
)

var (
	// ErrUnknownLevel indicates an unrecognized log level string.
	ErrUnknownLevel = errors.New("unknown log level")
	// ErrUnknownFormat indicates an unrecognized log format string.
	ErrUnknownFormat = errors.New("unknown log format")
)

// AllLevels lists the accepted --log-level values, for flag completion.
func AllLevels() []string { return []string{"debug", "info", "warn", "error"} }

// AllFormats lists the accepted --log-format values, for flag completion.
func AllFormats() []string { return []string{string(FormatText), string(FormatJSON), string(FormatLogfmt)} }

// NewHandler parses level/format and builds the corresponding handler
// writing to w.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	fmtt, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch fmtt {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatLogfmt, FormatText:
		return slog.NewTextHandler(w, opts), nil
	}
	return nil, fmt.Errorf("xlog: unreachable format %q", fmtt)
}

// ParseLevel parses a level string into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
}

// ParseFormat parses a format string into a Format.
func ParseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if f == "" {
		f = FormatText
	}
	if slices.Contains([]Format{FormatJSON, FormatText, FormatLogfmt}, f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
