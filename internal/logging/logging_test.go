package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseLevel(tc.in), "ParseLevel(%q)", tc.in)
	}
}

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tomato.log")

	l, closer, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	l.Info().Str("component", "test").Msg("hello")
	l.Debug().Msg("details")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"hello"`)
	require.Contains(t, string(data), `"component":"test"`)
	require.Contains(t, string(data), `"message":"details"`)
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tomato.log")

	l, closer, err := New(Options{Level: "warn", File: path})
	require.NoError(t, err)
	l.Info().Msg("quiet")
	l.Warn().Msg("loud")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "quiet")
	require.Contains(t, string(data), "loud")
}

func TestNewWithoutSinkIsNop(t *testing.T) {
	l, closer, err := New(Options{})
	require.NoError(t, err)
	require.Equal(t, zerolog.Disabled, l.GetLevel())
	require.NoError(t, closer.Close())
}

func TestNewRotatingWriterDefaults(t *testing.T) {
	w, err := NewRotatingWriter(Options{File: filepath.Join(t.TempDir(), "a.log"), MaxFiles: -1})
	require.NoError(t, err)
	require.Equal(t, 10, w.MaxSize)
	require.Equal(t, 5, w.MaxBackups)

	// Zero is lumberjack's "retain every backup" and must reach it as is.
	w, err = NewRotatingWriter(Options{File: filepath.Join(t.TempDir(), "b.log"), MaxFiles: 0})
	require.NoError(t, err)
	require.Equal(t, 0, w.MaxBackups)

	w, err = NewRotatingWriter(Options{File: filepath.Join(t.TempDir(), "c.log"), MaxFiles: 2})
	require.NoError(t, err)
	require.Equal(t, 2, w.MaxBackups)

	_, err = NewRotatingWriter(Options{})
	require.Error(t, err)
}
