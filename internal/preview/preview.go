// Package preview turns manifest entries into PR-scoped preview records.
package preview

import (
	"fmt"
	"slices"

	"github.com/qiskit/previewctl/internal/manifest"
)

const (
	// Topic is appended to every preview's topics so previews can be filtered in the catalog.
	Topic = "PR preview"
	// TutorialBaseURL is the public location of tutorials by slug.
	TutorialBaseURL = "https://learning.quantum.ibm.com/tutorial/"
)

// Tutorial is a manifest entry rewritten for a pull-request preview.
type Tutorial struct {
	manifest.Tutorial
	// RequiredInstanceAccess lists the instances allowed to view the preview.
	RequiredInstanceAccess []string
}

// URL returns the public link of the preview.
func (t Tutorial) URL() string {
	return TutorialBaseURL + t.Slug
}

// SlugPrefix returns the slug prefix shared by every preview of a pull request.
func SlugPrefix(prNumber int) string {
	return fmt.Sprintf("pr-%d-", prNumber)
}

// SelectChanged returns the entries whose local_path equals the directory of at least one
// changed file. Manifest order is kept and an entry appears at most once.
func SelectChanged(all []manifest.Tutorial, changedFiles []string) []manifest.Tutorial {
	dirs := make(map[string]struct{}, len(changedFiles))
	for _, f := range changedFiles {
		dirs[dirname(f)] = struct{}{}
	}

	var out []manifest.Tutorial
	for _, t := range all {
		if _, ok := dirs[t.LocalPath]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ToPreview derives the preview variant of t. The input is left untouched.
func ToPreview(t manifest.Tutorial, prNumber int, accessibleInstance string) Tutorial {
	p := Tutorial{Tutorial: t}
	p.Title = fmt.Sprintf("Preview (PR#%d): %s", prNumber, t.Title)
	p.Slug = SlugPrefix(prNumber) + t.Slug
	p.Topics = append(slices.Clone(t.Topics), Topic)
	p.RequiredInstanceAccess = []string{accessibleInstance}
	return p
}

// dirname returns the directory part of a slash-separated path the way Node's
// path.posix.dirname does: trailing slashes are ignored, only the last separator is
// cut, and no cleaning happens. So "./a/b.ipynb" yields "./a" and "a//b.ipynb" yields "a/".
func dirname(p string) string {
	if p == "" {
		return "."
	}
	hasRoot := p[0] == '/'
	end := -1
	matchedSlash := true
	for i := len(p) - 1; i >= 1; i-- {
		if p[i] == '/' {
			if !matchedSlash {
				end = i
				break
			}
			continue
		}
		matchedSlash = false
	}
	switch {
	case end == -1 && hasRoot:
		return "/"
	case end == -1:
		return "."
	case hasRoot && end == 1:
		return "//"
	}
	return p[:end]
}
