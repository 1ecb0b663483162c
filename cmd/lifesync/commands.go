package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lifesync/internal/api"
	"lifesync/internal/config"
	"lifesync/internal/logging"
	"lifesync/internal/mqttsink"
	"lifesync/internal/session"
	"lifesync/pkg/sims/life"
)

func newRootCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lifesync %s\n", version)
		},
	}

	rootCmd := &cobra.Command{
		Use:           "lifesync",
		Short:         "Conway's Game of Life engine with live synchronisation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(config.NewFlags()), versionCmd)
	return rootCmd
}

func newServeCmd(flags *config.Flags) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live-sync server",
		Long: `Starts the HTTP API and WebSocket server. Each session owns an
independent Game of Life engine; clients drive it with REST calls or
WebSocket commands and receive game-tick and cell-updated events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	flags.Bind(serveCmd.Flags())
	return serveCmd
}

// loadConfig resolves the configuration file, environment and flags.
func loadConfig(cmd *cobra.Command, flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags.Apply(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Logging, version)

	boundary, err := life.ParseBoundary(cfg.Grid.Boundary)
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.Defaults{
		Width:       cfg.Grid.Width,
		Height:      cfg.Grid.Height,
		Boundary:    boundary,
		MinInterval: cfg.Autoplay.MinInterval,
		Interval:    cfg.Autoplay.DefaultInterval,
	}, cfg.Server.MaxSessions, logger)

	stopSink := func() {}
	if cfg.MQTT.Enabled {
		if stopSink, err = startSink(cfg.MQTT, sessions, logger); err != nil {
			return err
		}
	}
	// Sessions close before the sink stops so retained state is cleared.
	defer stopSink()
	defer sessions.CloseAll()

	srv, err := api.New(api.Deps{
		Config:   cfg.Server,
		WS:       cfg.WebSocket,
		Logger:   logger,
		Sessions: sessions,
		Version:  version,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("lifesync started",
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"boundary", boundary.String(),
		"mqtt", cfg.MQTT.Enabled,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	return srv.Close()
}

// startSink connects to the broker and mirrors every new session to it.
// The returned func drains the queue and disconnects.
func startSink(cfg config.MQTTConfig, sessions *session.Manager, logger *logging.Logger) (func(), error) {
	client, err := mqttsink.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	sink := mqttsink.NewSink(client, cfg, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sink.Run(ctx)
	}()

	sessions.OnCreate(func(s *session.Session) {
		s.Defer(sink.Attach(s.ID, s.Engine))
	})

	return func() {
		cancel()
		<-done
		if err := client.Close(); err != nil {
			logger.Warn("mqtt close failed", "error", err)
		}
	}, nil
}
