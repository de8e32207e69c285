package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/idlekit/internal/logger"
)

// DaemonConfig holds the daemon options read from the config file.
type DaemonConfig struct {
	// AutoIdle launches the auto_idle list once at startup.
	AutoIdle bool

	// Unlock starts the achievement unlocker at startup.
	Unlock bool

	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string

	// MCPPort serves MCP over HTTP when positive.
	MCPPort int

	// OnReload runs after the config file changed and was reloaded.
	OnReload func()
}

var daemonConfig DaemonConfig

// SetDaemonConfig sets the configuration for the daemon command.
func SetDaemonConfig(cfg DaemonConfig) {
	daemonConfig = cfg
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled automations in the foreground",
	Long: `Run the automation daemon until interrupted.

The daemon runs the scheduled tasks (auto-idle, credentials-check), and
depending on the config file also:
  daemon.auto_idle     launch the auto_idle list at startup
  daemon.unlock        start the achievement unlocker at startup
  daemon.metrics_addr  serve Prometheus metrics on /metrics
  mcp.port             serve MCP over HTTP

Changes to the config file are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if taskScheduler == nil {
		return notConfigured("scheduler")
	}

	cfg := daemonConfig
	g, ctx := errgroup.WithContext(cmd.Context())
	logger.Section("Daemon")

	g.Go(func() error {
		err := taskScheduler.Start(ctx)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return taskScheduler.Stop()
	})

	if configStore != nil && configStore.Path() != "" {
		g.Go(func() error {
			return watchConfig(ctx, configStore.Path(), cfg.OnReload)
		})
	}

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddr)
		})
		cmd.Printf("Metrics on http://%s/metrics\n", cfg.MetricsAddr)
	}

	if cfg.MCPPort > 0 {
		server, err := newMCPServer()
		if err != nil {
			return err
		}
		addr := fmt.Sprintf(":%d", cfg.MCPPort)
		g.Go(func() error {
			return server.RunHTTP(ctx, addr)
		})
		cmd.Printf("MCP server on http://localhost%s\n", addr)
	}

	if cfg.AutoIdle && autoIdleLauncher != nil {
		g.Go(func() error {
			report, err := autoIdleLauncher.Trigger(ctx, false)
			if err != nil {
				logger.Warn("daemon: auto-idle failed: %v", err)
				return nil
			}
			logger.Info("daemon: auto-idle started %d titles", len(report.Started))
			return nil
		})
	}

	if cfg.Unlock && unlockScheduler != nil {
		if err := unlockScheduler.Start(ctx); err != nil {
			logger.Warn("daemon: unlocker not started: %v", err)
		}
	}

	cmd.Println("Daemon running. Press Ctrl+C to stop.")
	err := g.Wait()

	shutdownDaemon()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Daemon stopped.")
	return nil
}

// shutdownDaemon stops background automations. Running sessions stay up.
func shutdownDaemon() {
	if unlockScheduler != nil {
		unlockScheduler.Cancel()
		unlockScheduler.Wait()
	}
	if sessionRegistry != nil {
		sessionRegistry.CancelAll()
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("metrics server: %w", err)
}

// watchConfig reloads the config store when path changes. It watches the
// directory so editors that replace the file are seen.
func watchConfig(ctx context.Context, path string, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("daemon: create fsnotify watcher: %v", err)
		<-ctx.Done()
		return nil
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("daemon: not watching %s: %v", path, err)
		<-ctx.Done()
		return nil
	}

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := configStore.Load(); err != nil {
				logger.Warn("daemon: reloading config: %v", err)
				continue
			}
			logger.Info("daemon: config reloaded")
			if onReload != nil {
				onReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("daemon: fsnotify error: %v", err)
		}
	}
}
