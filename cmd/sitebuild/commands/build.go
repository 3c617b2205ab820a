package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MetricsFile string `name:"metrics-file" help:"Write build metrics in Prometheus text format to this file" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	dir, cfg, err := loadSite(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := build.NewService()
	var reg *prom.Registry
	if b.MetricsFile != "" {
		reg = prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	result, runErr := svc.Run(ctx, build.Request{Root: dir, Config: cfg, Out: g.stdout()})
	slog.Debug("Build finished",
		logfields.BuildID(result.BuildID),
		slog.String("status", string(result.Status)),
		slog.Duration("duration", result.Duration))

	if reg != nil {
		if err := metrics.WriteTextfile(b.MetricsFile, reg); err != nil {
			if runErr == nil {
				return err
			}
			slog.Warn("Failed to write metrics file", slog.String("path", b.MetricsFile), slog.String("error", err.Error()))
		}
	}
	return runErr
}
