package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ErlanBelekov/async-sched/config"
	ctxlog "github.com/ErlanBelekov/async-sched/internal/log"
	"github.com/ErlanBelekov/async-sched/internal/metrics"
	"github.com/ErlanBelekov/async-sched/internal/registry"
	"github.com/ErlanBelekov/async-sched/internal/server"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run or administer the scheduler server",
	}
	cmd.AddCommand(newServerRunCmd())
	return cmd
}

func newServerRunCmd() *cobra.Command {
	var (
		updatePath string
		setEnv     bool
		host       string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the scheduler server and block until shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}
			if updatePath != "" {
				cfg.UpdatePath = updatePath
			}
			if setEnv {
				os.Setenv("ASYNC_SCHED_HOST", cfg.Host)
				os.Setenv("ASYNC_SCHED_PORT", strconv.Itoa(cfg.Port))
			}

			logger := newLogger(cfg.Env, cfg.SlogLevel())
			return runServer(cfg, logger)
		},
	}

	cmd.Flags().StringVar(&updatePath, "update_path", "", "directory of callback manifests to load and watch")
	cmd.Flags().BoolVar(&setEnv, "set_env", false, "export ASYNC_SCHED_HOST/ASYNC_SCHED_PORT for this process")
	cmd.Flags().StringVar(&host, "host", "", "override ASYNC_SCHED_HOST")
	cmd.Flags().IntVar(&port, "port", 0, "override ASYNC_SCHED_PORT")

	return cmd
}

func runServer(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	reg := registry.New(logger)

	srv := server.New(reg, logger)
	srv.UpdatePath = cfg.UpdatePath

	var watcher *registry.DirWatcher
	if cfg.UpdatePath != "" {
		w, err := registry.NewDirWatcher(cfg.UpdatePath, reg)
		if err != nil {
			return fmt.Errorf("manifest watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("manifest watcher: %w", err)
		}
		watcher = w
	}

	if err := srv.Start(cfg.Host, cfg.Port); err != nil {
		return err
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil {
			logger.Debug("metrics server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	srv.Stop()
	if watcher != nil {
		watcher.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
	return nil
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
