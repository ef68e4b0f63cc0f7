package nuget

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// VersionSource lists the published versions of a package id.
type VersionSource interface {
	Versions(ctx context.Context, id string) ([]string, error)
}

type cacheEntry struct {
	version string
	found   bool
}

// Resolver answers "latest stable version" questions for one run. Every
// answer, absence included, is cached per package id. A Resolver is not safe
// for concurrent use.
type Resolver struct {
	source  VersionSource
	logger  *zap.Logger
	cache   map[string]cacheEntry
	lookups int
}

func NewResolver(source VersionSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source: source,
		logger: logger,
		cache:  map[string]cacheEntry{},
	}
}

// LatestStable returns the newest stable version of id, or the newest
// prerelease when nothing stable is published. Lookup failures are logged and
// reported as not found; they never abort the caller.
func (r *Resolver) LatestStable(ctx context.Context, id string) (string, bool) {
	if entry, ok := r.cache[id]; ok {
		r.logger.Debug("version cache hit", zap.String("package", id), zap.String("version", entry.version), zap.Bool("found", entry.found))
		return entry.version, entry.found
	}

	version, err := r.resolve(ctx, id)
	entry := cacheEntry{version: version, found: err == nil}
	if err != nil {
		r.logger.Warn("could not fetch latest version", zap.String("package", id), zap.Error(err))
	}
	r.cache[id] = entry
	return entry.version, entry.found
}

// Lookups is the number of feed requests made so far.
func (r *Resolver) Lookups() int {
	return r.lookups
}

func (r *Resolver) resolve(ctx context.Context, id string) (string, error) {
	r.lookups++
	versions, err := r.source.Versions(ctx, id)
	if err != nil {
		return "", err
	}
	latest, ok := Latest(versions)
	if !ok {
		return "", fmt.Errorf("version index for %s: %w", id, ErrNoVersions)
	}
	return latest, nil
}
