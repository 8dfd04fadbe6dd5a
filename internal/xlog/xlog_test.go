package xlog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("bogus")
	require.ErrorIs(t, err, ErrUnknownLevel)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatText, f)

	_, err = ParseFormat("bogus")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "info", "json")
	require.NoError(t, err)
	slog.New(h).Info("hello")
	require.Contains(t, buf.String(), `"msg":"hello"`)
}
