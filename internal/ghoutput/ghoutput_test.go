package ghoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDisabled(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	w := FromEnv()
	assert.False(t, w.Enabled())
	assert.NoError(t, w.Write(map[string]string{"a": "b"}))

	var nilWriter *Writer
	assert.NoError(t, nilWriter.Write(map[string]string{"a": "b"}))
}

func TestWriteSingleAndMultiLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o600))

	w := New(path)
	w.delimiter = func() string { return "EOF" }
	require.NoError(t, w.Write(map[string]string{
		"preview-count": "1",
		"message":       "Previews available:\n * [x](y)",
		" ":             "ignored",
	}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\n"+
		"message<<EOF\nPreviews available:\n * [x](y)\nEOF\n"+
		"preview-count=1\n", string(got))
}

func TestWriteAvoidsDelimiterCollision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", path)

	w := FromEnv()
	calls := 0
	w.delimiter = func() string {
		calls++
		if calls == 1 {
			return "EOF"
		}
		return "EOF2"
	}
	require.NoError(t, w.Write(map[string]string{"message": "line\nEOF\n"}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "message<<EOF2\nline\nEOF\n\nEOF2\n", string(got))
}
