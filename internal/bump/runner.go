// Package bump runs one manifest bump: it resolves the registry, rewrites the
// manifest pins, reports what changed and writes the manifest back.
package bump

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codebeltnet/bump-nuget/internal/catalog"
	"github.com/codebeltnet/bump-nuget/internal/config"
	"github.com/codebeltnet/bump-nuget/internal/manifest"
	"github.com/codebeltnet/bump-nuget/internal/nuget"
	"github.com/codebeltnet/bump-nuget/internal/report"
)

// Outcome summarizes a finished run.
type Outcome struct {
	RunID   string
	Result  manifest.Result
	Written bool
	Lookups int
}

type Runner struct {
	httpClient *http.Client
	logger     *zap.Logger
	statusOut  io.Writer
	newRunID   func() string
}

func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		httpClient: &http.Client{},
		logger:     logger,
		statusOut:  io.Discard,
		newRunID:   uuid.NewString,
	}
}

func (r *Runner) SetStatusWriter(writer io.Writer) {
	if writer == nil {
		writer = io.Discard
	}
	r.statusOut = writer
}

func (r *Runner) SetHTTPClient(client *http.Client) {
	if client != nil {
		r.httpClient = client
	}
}

// LoadRegistry returns the registry file at path, or the built-in registry
// when path is empty.
func LoadRegistry(path string) (*catalog.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// Run performs one bump. Configuration problems and a missing manifest are
// returned before anything is written; lookup failures only leave the
// affected pins unchanged.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	target := cfg.TargetVersion()
	runID := r.newRunID()
	logger := r.logger.With(
		zap.String("run_id", runID),
		zap.String("source", cfg.Source),
		zap.String("version", target),
		zap.String("mode", string(cfg.Mode)),
	)

	registry, err := LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("load package registry: %w", err)
	}
	logger.Debug("package registry loaded", zap.Int("sources", registry.Len()), zap.String("path", cfg.RegistryPath))
	if registry.Prefixes(cfg.Source) == nil {
		logger.Warn("trigger source is not in the registry; no package will take the trigger version", zap.Strings("known_sources", registry.Sources()))
	}

	text, err := manifest.Read(cfg.ManifestPath)
	if err != nil {
		return Outcome{}, err
	}

	var resolver *nuget.Resolver
	if cfg.Mode.RefreshesFamily() {
		resolver = nuget.NewResolver(nuget.NewClient(r.httpClient, cfg.FeedURL, cfg.Timeout), logger)
	}
	policy := Policy{
		Registry:      registry,
		Source:        cfg.Source,
		Target:        target,
		RefreshFamily: cfg.Mode.RefreshesFamily(),
		Logger:        logger,
	}
	if resolver != nil {
		policy.Resolver = resolver
	}

	started := time.Now()
	result, err := manifest.Rewrite(ctx, text, policy)
	if err != nil {
		return Outcome{}, fmt.Errorf("rewrite manifest %s: %w", cfg.ManifestPath, err)
	}
	outcome := Outcome{RunID: runID, Result: result}
	if resolver != nil {
		outcome.Lookups = resolver.Lookups()
	}
	logger.Info("manifest scanned",
		zap.String("manifest", cfg.ManifestPath),
		zap.Int("packages", result.Count()),
		zap.Int("changed", len(result.Changes)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("lookups", outcome.Lookups),
		zap.Duration("elapsed", time.Since(started)),
	)

	if err := report.Write(r.statusOut, report.Summary{
		Source:        cfg.Source,
		Version:       target,
		RefreshFamily: cfg.Mode.RefreshesFamily(),
		Changes:       result.Changes,
		Skipped:       result.Skipped,
		DryRun:        cfg.DryRun,
		ManifestPath:  cfg.ManifestPath,
	}); err != nil {
		return outcome, fmt.Errorf("write report: %w", err)
	}

	if cfg.DryRun || !result.Modified() {
		return outcome, nil
	}
	if err := manifest.WriteAtomic(cfg.ManifestPath, result.Text); err != nil {
		return outcome, err
	}
	outcome.Written = true
	logger.Info("manifest written", zap.String("manifest", cfg.ManifestPath))
	return outcome, nil
}
