//go:build ebiten

package main

import (
	"errors"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"

	"lifesync/internal/app"
	"lifesync/internal/config"
	"lifesync/internal/logging"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(pflag.CommandLine)
	logLevel := pflag.String("log-level", "info", "log level (debug|info|warn|error)")
	pflag.Parse()

	logCfg := config.Default().Logging
	logCfg.Level, logCfg.Format, logCfg.Output = *logLevel, "text", "stderr"
	logger := logging.New(logCfg, "viewer")

	game, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("invalid viewer settings", "error", err)
		os.Exit(2)
	}
	defer game.Close()

	ebiten.SetWindowTitle("lifesync")
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(game.Layout(0, 0))

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}
