package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/publish"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitCode(err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting webdex build", "config", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks := publish.Open(ctx, cfg)
	defer closeSinks()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		checker := health.NewChecker()
		publish.RegisterHealth(checker, sinks)
		shutdown := metrics.StartServer(cfg.Metrics.Port, m, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown", "error", err)
			}
		}()
	}

	engine := pipeline.NewEngine(cfg,
		pipeline.WithMetrics(m),
		pipeline.WithSinks(sinks...),
	)
	summary, err := engine.Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			slog.Error("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}
	if err != nil {
		slog.Error("build failed", "error", err)
		return apperrors.ExitCode(err)
	}

	slog.Info("webdex build complete",
		"build_id", summary.BuildID,
		"pages", summary.Pages,
		"duration", summary.Duration().String(),
	)
	return apperrors.ExitOK
}
