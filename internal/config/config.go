// Package config resolves the settings of a bump run: defaults first, then the
// CI environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codebeltnet/bump-nuget/internal/nuget"
)

const (
	SourceEnv   = "TRIGGER_SOURCE"
	VersionEnv  = "TRIGGER_VERSION"
	ManifestEnv = "BUMP_NUGET_MANIFEST"
	ModeEnv     = "BUMP_NUGET_MODE"
	RegistryEnv = "BUMP_NUGET_REGISTRY"
	FeedURLEnv  = "NUGET_FLAT_CONTAINER_URL"
	TimeoutEnv  = "BUMP_NUGET_TIMEOUT"

	DefaultManifestPath = "Directory.Packages.props"
	DefaultFeedURL      = nuget.DefaultFeedURL
	DefaultTimeout      = nuget.DefaultTimeout
)

var (
	ErrMissingTrigger = errors.New("TRIGGER_SOURCE and TRIGGER_VERSION environment variables required")
	ErrInvalidMode    = errors.New("invalid mode")
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// Config holds everything a single bump run needs.
type Config struct {
	Source       string
	Version      string
	ManifestPath string
	Mode         Mode
	RegistryPath string
	FeedURL      string
	Timeout      time.Duration
	DryRun       bool
	Verbose      bool
}

// Defaults returns a Config with every optional setting filled in.
func Defaults() Config {
	return Config{
		ManifestPath: DefaultManifestPath,
		Mode:         ModeFull,
		FeedURL:      DefaultFeedURL,
		Timeout:      DefaultTimeout,
	}
}

// FromEnv overlays the non-empty environment values on top of Defaults.
// getenv is usually os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()
	cfg.Source = strings.TrimSpace(getenv(SourceEnv))
	cfg.Version = strings.TrimSpace(getenv(VersionEnv))

	if v := strings.TrimSpace(getenv(ManifestEnv)); v != "" {
		cfg.ManifestPath = v
	}
	if v := strings.TrimSpace(getenv(RegistryEnv)); v != "" {
		cfg.RegistryPath = v
	}
	if v := strings.TrimSpace(getenv(FeedURLEnv)); v != "" {
		cfg.FeedURL = v
	}
	if v := strings.TrimSpace(getenv(ModeEnv)); v != "" {
		mode, err := ParseMode(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode = mode
	}
	if v := strings.TrimSpace(getenv(TimeoutEnv)); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %v", ErrInvalidTimeout, TimeoutEnv, v, err)
		}
		cfg.Timeout = timeout
	}
	return cfg, nil
}

// Validate reports the first configuration error. A missing trigger echoes
// both trigger values so CI logs show which one was empty; a version that is
// only a "v" counts as missing.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" || c.TargetVersion() == "" {
		return fmt.Errorf("%w\n  %s=%s\n  %s=%s", ErrMissingTrigger, SourceEnv, c.Source, VersionEnv, c.Version)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidTimeout, c.Timeout)
	}
	if strings.TrimSpace(c.ManifestPath) == "" {
		return errors.New("manifest path is empty")
	}
	return nil
}

// TargetVersion is the trigger version with one leading "v" removed.
func (c Config) TargetVersion() string {
	return strings.TrimPrefix(strings.TrimSpace(c.Version), "v")
}
