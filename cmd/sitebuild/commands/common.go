package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // progress output; nil means stdout
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Root    string           `short:"C" name:"root" help:"Source root directory" default:"."`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Build the site into the output directory (default)"`
	Discover DiscoverCmd `cmd:"" help:"List pages, titles and the asset plan without writing anything"`
	Verify   VerifyCmd   `cmd:"" help:"Check the output directory against the source tree"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild on change and optionally serve the output"`
}

// AfterApply runs after flag parsing; load the env file and set up logging once.
func (c *CLI) AfterApply() error {
	if _, err := config.LoadEnvFile(c.Root); err != nil {
		return err
	}
	level := config.ResolveLogLevel(c.Verbose, os.Getenv)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadSite resolves the source root and loads the site table.
func loadSite(root *CLI) (string, *config.Config, error) {
	dir := root.Root
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, errors.InternalError("resolve source root", err)
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return "", nil, errors.ValidationFailed("root", "not a directory: "+abs)
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return "", nil, err
	}
	slog.Debug("Site table loaded",
		slog.String("root", abs),
		slog.String("output", cfg.OutputDir),
		slog.Int("pages", len(cfg.Pages)))
	return abs, cfg, nil
}
