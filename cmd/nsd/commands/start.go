package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/langos-dfs/langos/internal/config"
	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/internal/telemetry"
	"github.com/langos-dfs/langos/pkg/catalog"
	"github.com/langos-dfs/langos/pkg/nsserver"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the name server",
	Long: `Start the name server's line-protocol listener and its side-channel
admin HTTP surface (/healthz, /metrics).

Examples:
  nsd start
  nsd start --config /etc/langos/nsd.yaml
  LANGOS_NSD_LOGGING_LEVEL=DEBUG nsd start --config /etc/langos/nsd.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadNSConfig(GetConfigFile())
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
		ServiceName:    "nsd",
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
		ServiceName:    "nsd",
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

	logger.Info("nsd starting", "listen_addr", cfg.ListenAddr, "admin_addr", cfg.AdminAddr, "data_dir", cfg.DataDir)

	cat, err := catalog.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	srv := nsserver.New(cfg.ListenAddr, cat, cfg.ShutdownTimeout)

	var adminSrv *http.Server
	if cfg.AdminAddr != "" {
		adminSrv = &http.Server{Addr: cfg.AdminAddr, Handler: nsserver.NewAdminRouter(cat)}
		go func() {
			logger.Info("nsd admin http listening", "addr", cfg.AdminAddr)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin http server error", "error", err)
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("nsd is running, press ctrl+c to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining sessions")
		cancel()
		if adminSrv != nil {
			_ = adminSrv.Shutdown(context.Background())
		}
		if err := <-serverDone; err != nil {
			logger.Error("nsd shutdown error", "error", err)
			return err
		}
		logger.Info("nsd stopped gracefully")
	case err := <-serverDone:
		signal.Stop(sigChan)
		if adminSrv != nil {
			_ = adminSrv.Shutdown(context.Background())
		}
		if err != nil {
			logger.Error("nsd server error", "error", err)
			return err
		}
		logger.Info("nsd stopped")
	}
	return nil
}
