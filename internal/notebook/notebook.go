// Package notebook renders Jupyter notebooks as the markdown body stored in the catalog.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Notebook is the subset of the nbformat v4 document used for rendering.
type Notebook struct {
	Cells    []Cell `json:"cells"`
	Metadata struct {
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
		Kernelspec struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
	} `json:"metadata"`
}

// Cell is a single notebook cell.
type Cell struct {
	CellType string `json:"cell_type"`
	Source   Source `json:"source"`
}

// Source is cell text. nbformat allows either a string or a list of lines.
type Source string

// UnmarshalJSON accepts either a single string or a list of line strings.
func (s *Source) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*s = Source(text)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err != nil {
		return fmt.Errorf("cell source must be a string or a list of strings")
	}
	*s = Source(strings.Join(lines, ""))
	return nil
}

// Find returns the notebook for a tutorial directory: <dir>/<basename>.ipynb when present,
// otherwise the lexically first .ipynb file in dir.
func Find(dir string) (string, error) {
	preferred := filepath.Join(dir, filepath.Base(dir)+".ipynb")
	if st, err := os.Stat(preferred); err == nil && !st.IsDir() {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.ipynb"))
	if err != nil {
		return "", fmt.Errorf("search notebooks in %s: %w", dir, err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("no notebook found in %s", dir)
	}
	return matches[0], nil
}

// Read parses the notebook at path.
func Read(path string) (*Notebook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notebook: %w", err)
	}
	var nb Notebook
	if err := json.Unmarshal(raw, &nb); err != nil {
		return nil, fmt.Errorf("parse notebook %s: %w", path, err)
	}
	return &nb, nil
}

// Markdown reads the notebook at path and renders it with Render.
func Markdown(path string) (string, error) {
	nb, err := Read(path)
	if err != nil {
		return "", err
	}
	return nb.Render(), nil
}

// Language returns the notebook's programming language, defaulting to python.
func (nb *Notebook) Language() string {
	if lang := strings.TrimSpace(nb.Metadata.LanguageInfo.Name); lang != "" {
		return lang
	}
	if lang := strings.TrimSpace(nb.Metadata.Kernelspec.Language); lang != "" {
		return lang
	}
	return "python"
}

// Render converts cells to markdown. Markdown cells are copied, code cells become fenced
// blocks and raw cells are dropped. The leading level-one heading is removed because the
// title is stored separately. The result ends with exactly one newline, or is empty.
func (nb *Notebook) Render() string {
	lang := nb.Language()
	blocks := make([]string, 0, len(nb.Cells))
	for _, cell := range nb.Cells {
		text := strings.TrimRight(string(cell.Source), "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch cell.CellType {
		case "markdown":
			blocks = append(blocks, text)
		case "code":
			blocks = append(blocks, "```"+lang+"\n"+text+"\n```")
		}
	}

	body := stripTitle(strings.Join(blocks, "\n\n"))
	if body == "" {
		return ""
	}
	return body + "\n"
}

func stripTitle(md string) string {
	md = strings.TrimLeft(md, "\n")
	if strings.HasPrefix(md, "# ") {
		_, rest, _ := strings.Cut(md, "\n")
		md = rest
	}
	return strings.TrimSpace(md)
}
