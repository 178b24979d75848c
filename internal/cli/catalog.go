package cli

import (
	"log/slog"

	"github.com/qiskit/previewctl/internal/catalog"
	"github.com/qiskit/previewctl/internal/catalog/directus"
	"github.com/qiskit/previewctl/internal/catalog/memory"
	"github.com/qiskit/previewctl/internal/env"
)

// openCatalog returns the learning API client, or an in-memory catalog for dry runs.
func openCatalog(opts *Options, logger *slog.Logger) (catalog.Catalog, error) {
	if opts.DryRun {
		logger.Warn("dry run: changes go to an in-memory catalog and are discarded")
		return memory.New(memory.WithLenientReferences()), nil
	}

	vars, err := env.Resolve(".", opts.EnvFiles)
	if err != nil {
		return nil, err
	}
	cfg, err := directus.ConfigFromEnv(vars)
	if err != nil {
		return nil, err
	}
	logger.Debug("using learning API", "url", cfg.URL)
	return directus.NewClient(cfg, logger)
}
