package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foundry-lang/foundry/internal/cli/config"
	"github.com/foundry-lang/foundry/internal/loader"
	"github.com/foundry-lang/foundry/internal/manifest"
	"github.com/foundry-lang/foundry/internal/textfile"
	"github.com/foundry-lang/foundry/workspace"
)

// host bundles the pieces the CLI commands share: one workspace, one loader,
// one filesystem text source, wired from foundry.yml.
type host struct {
	cfg    *config.Config
	ws     *workspace.Workspace
	loader *loader.Loader
	reader *manifest.Reader
	source *textfile.Source
	logger *zap.Logger
}

func newHost(dir string, verbose bool) (*host, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	} else {
		logger = zap.NewNop()
	}

	source := textfile.NewSource(
		textfile.WithRetryDelay(cfg.RetryDelay()),
		textfile.WithLogger(logger),
	)
	reader := manifest.NewReader(source)
	opts := loader.Options{
		Strict:           cfg.Load.Strict,
		MetadataFallback: cfg.Load.MetadataFallback,
		Logger:           logger,
	}
	ws := workspace.New(workspace.Options{
		Capabilities: cfg.Capabilities(),
		Writer:       source,
		Logger:       logger,
	})
	return &host{
		cfg:    cfg,
		ws:     ws,
		loader: loader.New(reader, opts),
		reader: reader,
		source: source,
		logger: logger,
	}, nil
}

// loadSolution reads the workspace manifest in dir and loads its projects.
func (h *host) loadSolution(dir string) error {
	manifestPath := filepath.Join(dir, manifest.WorkspaceManifestName)
	paths, err := h.reader.ReadWorkspace(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}
	ctx := contextWithInterrupt()
	if _, err := h.loader.LoadInto(ctx, h.ws, paths); err != nil {
		return err
	}
	return nil
}
