package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/langos-dfs/langos/internal/config"
	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/internal/telemetry"
	"github.com/langos-dfs/langos/pkg/ssengine"
	"github.com/langos-dfs/langos/pkg/ssserver"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the storage server",
	Long: `Start the storage server's line-protocol listener, registering its
existing files with the name server first so a restart reattaches rather
than orphans the catalog rows pointing at them.

Examples:
  ssd start
  ssd start --config /etc/langos/ssd.yaml
  LANGOS_SSD_LOGGING_LEVEL=DEBUG ssd start --config /etc/langos/ssd.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadSSConfig(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ssd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    "ssd",
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("init profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("ssd starting", "listen_addr", cfg.ListenAddr, "root_dir", cfg.RootDir, "ns_addr", cfg.NSAddr)

	engine := ssengine.New(cfg.RootDir)

	existing, err := engine.ListFiles()
	if err != nil {
		return fmt.Errorf("list existing files: %w", err)
	}
	if err := ssserver.RegisterWithNS(cfg.NSAddr, cfg.AdvertiseIP, cfg.AdvertisePort, existing); err != nil {
		return fmt.Errorf("register with name server: %w", err)
	}
	logger.Info("registered with name server", "files", len(existing))

	srv := ssserver.New(cfg.ListenAddr, engine, cfg.ShutdownTimeout)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("ssd is running, press ctrl+c to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining sessions")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("ssd shutdown error", "error", err)
			return err
		}
		logger.Info("ssd stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("ssd server error", "error", err)
			return err
		}
		logger.Info("ssd stopped")
	}
	return nil
}
