//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jumpflood/internal/app"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	if err := cfg.Resolve(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	game, err := app.New(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal("pipeline setup failed", zap.Error(err))
	}
	defer game.Close()

	if cfg.Path != "" {
		w, err := app.NewWatcher(cfg.Path, app.Reload{Mode: cfg.Mode, Passes: cfg.Passes}, logger.Named("config"))
		if err != nil {
			logger.Warn("config reload disabled", zap.Error(err))
		} else {
			go w.Run(ctx, game.Reload)
		}
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("render loop stopped", zap.Error(err))
	}
}
