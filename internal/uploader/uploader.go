// Package uploader wires the manifest, preview transform and catalog together into the
// setup and teardown flows run for pull requests.
//
// Both flows are sequential and fail fast: the first error aborts the run and nothing that
// was already written to the catalog is rolled back. CI reruns are the recovery path.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qiskit/previewctl/internal/catalog"
	"github.com/qiskit/previewctl/internal/manifest"
	"github.com/qiskit/previewctl/internal/notebook"
	"github.com/qiskit/previewctl/internal/preview"
)

// Publisher writes preview records.
type Publisher interface {
	Upsert(ctx context.Context, t catalog.Tutorial) (string, error)
}

// Retractor lists and removes preview records.
type Retractor interface {
	ListSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, slug string) error
}

// SetupOptions configures a setup run.
type SetupOptions struct {
	// PRNumber is the pull request the previews belong to.
	PRNumber int
	// ChangedFiles are repository-relative paths touched by the pull request.
	ChangedFiles []string
	// ConfigPath is the tutorial manifest.
	ConfigPath string
	// AccessibleToInstance is the only instance allowed to view the previews.
	AccessibleToInstance string
	// MessagePath is where the PR comment is written.
	MessagePath string
	// ContentRoot is the directory local_path entries are relative to.
	ContentRoot string
}

// SetupResult describes what a setup run published.
type SetupResult struct {
	Previews []preview.Tutorial
	Message  string
}

func (o SetupOptions) validate() error {
	if o.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got %d", o.PRNumber)
	}
	if o.ConfigPath == "" {
		return errors.New("manifest path is empty")
	}
	if o.AccessibleToInstance == "" {
		return errors.New("accessible instance is empty")
	}
	if o.MessagePath == "" {
		return errors.New("message path is empty")
	}
	return nil
}

// Setup publishes previews for every manifest entry touched by the changed files and
// writes the PR comment listing them.
func Setup(ctx context.Context, logger *slog.Logger, pub Publisher, opts SetupOptions) (SetupResult, error) {
	if err := opts.validate(); err != nil {
		return SetupResult{}, err
	}
	if err := RemoveMessage(opts.MessagePath); err != nil {
		return SetupResult{}, err
	}

	all, err := manifest.Load(opts.ConfigPath)
	if err != nil {
		return SetupResult{}, err
	}
	changed := preview.SelectChanged(all, opts.ChangedFiles)
	logger.Info("selected changed tutorials",
		"pr", opts.PRNumber,
		"changed_files", len(opts.ChangedFiles),
		"tutorials", len(changed),
	)

	previews := make([]preview.Tutorial, 0, len(changed))
	for _, t := range changed {
		previews = append(previews, preview.ToPreview(t, opts.PRNumber, opts.AccessibleToInstance))
	}

	for _, p := range previews {
		record, err := catalogRecord(opts.ContentRoot, p)
		if err != nil {
			return SetupResult{}, err
		}
		id, err := pub.Upsert(ctx, record)
		if err != nil {
			return SetupResult{}, fmt.Errorf("upsert preview %q: %w", p.Slug, err)
		}
		logger.Info("preview published", "slug", p.Slug, "id", id, "url", p.URL())
	}

	message, err := preview.RenderComment(previews)
	if err != nil {
		return SetupResult{}, err
	}
	if err := os.WriteFile(opts.MessagePath, []byte(message), 0o644); err != nil {
		return SetupResult{}, fmt.Errorf("write PR message: %w", err)
	}
	logger.Info("PR message written", "path", opts.MessagePath, "previews", len(previews))

	return SetupResult{Previews: previews, Message: message}, nil
}

// catalogRecord builds the catalog payload for a preview, including the notebook body.
func catalogRecord(contentRoot string, p preview.Tutorial) (catalog.Tutorial, error) {
	dir := p.LocalPath
	if contentRoot != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(contentRoot, dir)
	}
	nbPath, err := notebook.Find(dir)
	if err != nil {
		return catalog.Tutorial{}, fmt.Errorf("tutorial %q: %w", p.Slug, err)
	}
	content, err := notebook.Markdown(nbPath)
	if err != nil {
		return catalog.Tutorial{}, fmt.Errorf("tutorial %q: %w", p.Slug, err)
	}

	return catalog.Tutorial{
		Slug:                   p.Slug,
		Status:                 p.Status,
		ReadingTime:            p.ReadingTime,
		CatalogFeatured:        p.CatalogFeatured,
		Category:               p.Category,
		Topics:                 p.Topics,
		RequiredInstanceAccess: p.RequiredInstanceAccess,
		Translation: catalog.Translation{
			Title:            p.Title,
			ShortDescription: p.ShortDescription,
			Content:          content,
		},
	}, nil
}

// Teardown deletes every catalog record whose slug carries the PR preview prefix and
// returns the deleted slugs. Records that vanish between listing and deletion are skipped.
func Teardown(ctx context.Context, logger *slog.Logger, r Retractor, prNumber int) ([]string, error) {
	if prNumber <= 0 {
		return nil, fmt.Errorf("pull request number must be positive, got %d", prNumber)
	}

	prefix := preview.SlugPrefix(prNumber)
	slugs, err := r.ListSlugsWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list previews for PR #%d: %w", prNumber, err)
	}
	if len(slugs) == 0 {
		logger.Info("no previews to delete", "pr", prNumber)
		return nil, nil
	}

	deleted := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		err := r.Delete(ctx, slug)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			logger.Warn("preview already gone", "slug", slug)
			continue
		case err != nil:
			return deleted, fmt.Errorf("delete preview %q: %w", slug, err)
		}
		deleted = append(deleted, slug)
		logger.Info("preview deleted", "slug", slug)
	}
	return deleted, nil
}

// RemoveMessage deletes a previously written PR message. A missing file is not an error.
func RemoveMessage(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale PR message: %w", err)
	}
	return nil
}
