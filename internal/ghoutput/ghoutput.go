// Package ghoutput writes GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Writer appends outputs to the file GitHub Actions exposes through GITHUB_OUTPUT.
// A Writer without a path is a no-op, which is what runs outside Actions get.
type Writer struct {
	path      string
	delimiter func() string
}

// New returns a Writer appending to path.
func New(path string) *Writer {
	return &Writer{
		path:      strings.TrimSpace(path),
		delimiter: func() string { return "ghadelimiter_" + uuid.NewString() },
	}
}

// FromEnv returns a Writer for the GITHUB_OUTPUT file of the current step.
func FromEnv() *Writer {
	return New(os.Getenv("GITHUB_OUTPUT"))
}

// Enabled reports whether outputs are written anywhere.
func (w *Writer) Enabled() bool {
	return w != nil && w.path != ""
}

// Write appends values in key order. Multi-line values use the heredoc form.
func (w *Writer) Write(values map[string]string) error {
	if !w.Enabled() || len(values) == 0 {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open GITHUB_OUTPUT: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values[key]
		if !strings.ContainsAny(value, "\r\n") {
			if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
				return err
			}
			continue
		}
		delim := w.delimiter()
		for strings.Contains(value, delim) {
			delim = w.delimiter()
		}
		if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", key, delim, value, delim); err != nil {
			return err
		}
	}
	return nil
}
