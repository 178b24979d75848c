package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError reports a manifest entry that is missing a field or has a wrongly typed one.
type ValidationError struct {
	// File is the manifest path the entry came from.
	File string
	// Index is the zero-based entry position, or -1 for document-level problems.
	Index int
	// Entry is the offending entry re-serialized as YAML.
	Entry string
	// Field is the offending attribute; empty when the entry itself has the wrong shape.
	Field string
	// Expected describes the required type.
	Expected string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The following entry in `%s` is invalid.\n\n", filepath.Base(e.File))
	sb.WriteString(e.Entry)
	if !strings.HasSuffix(e.Entry, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	if e.Field == "" {
		fmt.Fprintf(&sb, "Entry should be a %s.\n", e.Expected)
		return sb.String()
	}
	fmt.Fprintf(&sb, "Attribute '%s' should exist and be of type '%s'.\n", e.Field, e.Expected)
	return sb.String()
}

// ReadError reports a manifest that could not be read or parsed as YAML.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read manifest %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
