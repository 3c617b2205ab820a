package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/preview"
)

// WatchCmd rebuilds the site whenever the source tree changes.
type WatchCmd struct {
	Serve    string        `name:"serve" help:"Serve the output directory on this address (e.g. :8080)"`
	Debounce time.Duration `name:"debounce" default:"300ms" help:"Quiet period after the last change before rebuilding"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	dir, cfg, err := loadSite(root)
	if err != nil {
		return err
	}

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(sigctx, g, dir, cfg)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, dir string, cfg *config.Config) error {
	reg := prom.NewRegistry()
	svc := build.NewService().WithRecorder(metrics.NewPrometheusRecorder(reg))
	output := cfg.OutputPath(dir)

	watcher, err := preview.NewWatcher(preview.Options{
		Root:     dir,
		Output:   output,
		Debounce: w.Debounce,
	}, func(ctx context.Context) error {
		_, err := svc.Run(ctx, build.Request{Root: dir, Config: cfg, Out: g.stdout()})
		return err
	})
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	group.Go(func() error {
		// The server lives only as long as the watcher.
		defer stopServe()
		return watcher.Run(ctx)
	})
	if w.Serve != "" {
		logger := slog.Default()
		if g != nil && g.Logger != nil {
			logger = g.Logger
		}
		srv := preview.NewServer(output, watcher.Status(), reg, logger)
		group.Go(func() error {
			return preview.ListenAndServe(serveCtx, w.Serve, srv)
		})
	}
	return group.Wait()
}
