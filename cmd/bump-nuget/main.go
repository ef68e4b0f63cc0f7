package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codebeltnet/bump-nuget/internal/bump"
	"github.com/codebeltnet/bump-nuget/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cli struct {
	getenv    func(string) string
	stdout    io.Writer
	newLogger func(verbose bool) (*zap.Logger, error)
	logger    *zap.Logger

	manifestPath string
	mode         string
	registryPath string
	feedURL      string
	source       string
	version      string
	timeout      time.Duration
	dryRun       bool
	verbose      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	c := &cli{getenv: getenv, stdout: stdout, newLogger: productionLogger}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func productionLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump-nuget",
		Short: "Bump centrally managed NuGet package pins after an upstream release",
		Long: `bump-nuget rewrites the PackageVersion pins of a Directory.Packages.props
file after a family repository publishes a release.

Packages published by the triggering repository are set to the trigger version.
In full mode every other family package is set to its latest stable version on
NuGet. Third-party packages are never touched.

The trigger is read from TRIGGER_SOURCE and TRIGGER_VERSION unless --source and
--version are given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := c.newLogger(c.verbose)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.resolveConfig(cmd)
			if err != nil {
				return err
			}
			runner := bump.NewRunner(c.logger)
			runner.SetStatusWriter(c.stdout)
			_, err = runner.Run(cmd.Context(), cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.source, "source", "", "triggering source repository (overrides "+config.SourceEnv+")")
	flags.StringVar(&c.version, "version", "", "released version, a leading v is dropped (overrides "+config.VersionEnv+")")
	flags.StringVarP(&c.manifestPath, "manifest", "m", config.DefaultManifestPath, "path of the Directory.Packages.props file")
	flags.StringVar(&c.mode, "mode", string(config.ModeFull), "bump mode: full or trigger-only")
	flags.StringVar(&c.feedURL, "feed-url", config.DefaultFeedURL, "NuGet v3 flat-container base URL")
	flags.DurationVar(&c.timeout, "timeout", config.DefaultTimeout, "timeout of each NuGet version lookup")
	flags.BoolVar(&c.dryRun, "dry-run", false, "report changes without writing the manifest")

	persistent := cmd.PersistentFlags()
	persistent.StringVar(&c.registryPath, "registry", "", "package registry file (.yaml, .toml or .json); built-in registry when empty")
	persistent.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(c.registryCmd(), versionCmd(c))
	return cmd
}

// resolveConfig layers explicitly set flags over the environment.
func (c *cli) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv(c.getenv)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = strings.TrimSpace(c.source)
	}
	if flags.Changed("version") {
		cfg.Version = strings.TrimSpace(c.version)
	}
	if flags.Changed("manifest") {
		cfg.ManifestPath = c.manifestPath
	}
	if flags.Changed("mode") {
		mode, err := config.ParseMode(c.mode)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Mode = mode
	}
	if flags.Changed("registry") {
		cfg.RegistryPath = c.registryPath
	}
	if flags.Changed("feed-url") {
		cfg.FeedURL = c.feedURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = c.timeout
	}
	cfg.DryRun = c.dryRun
	cfg.Verbose = c.verbose
	return cfg, nil
}

func (c *cli) registryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Print the source repositories and the package prefixes they own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.registryPath
			if !cmd.Flags().Changed("registry") {
				if v := strings.TrimSpace(c.getenv(config.RegistryEnv)); v != "" {
					path = v
				}
			}
			registry, err := bump.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("load package registry: %w", err)
			}
			var b strings.Builder
			for _, source := range registry.Sources() {
				fmt.Fprintf(&b, "%s: %s\n", source, strings.Join(registry.Prefixes(source), ", "))
			}
			_, err = io.WriteString(c.stdout, b.String())
			return err
		},
	}
}

func versionCmd(c *cli) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(c.stdout, version)
				return
			}
			fmt.Fprintf(c.stdout, "bump-nuget %s (commit %s, built %s)\n", version, commit, date)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
