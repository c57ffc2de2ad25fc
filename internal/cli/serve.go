package cli

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/api"
	"github.com/ramonehamilton/booster-companion/internal/config"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/notify"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

func (a *app) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the economy with the REST API and live WebSocket events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				a.cfg.API.Port = port
			}
			// serve always logs; the process is long-running.
			log.SetOutput(os.Stderr)
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "API server port (overrides the config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if a.cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	refresh, err := a.cfg.GetRefreshInterval()
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}
	backupEvery, err := a.cfg.GetBackupInterval()
	if err != nil {
		return fmt.Errorf("invalid backup interval: %w", err)
	}

	dbPath, err := a.cfg.DatabasePath()
	if err != nil {
		return err
	}

	s, err := a.open(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	server := api.NewServer(&api.Config{
		Port:           a.cfg.API.Port,
		AllowedOrigins: a.cfg.API.CORSOrigins,
	}, s.svc)
	s.dispatcher.Register(server.NewWebSocketObserver())

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	spawn(func() {
		if err := s.svc.Run(ctx, refresh, logger.With("component", "economy")); err != nil && ctx.Err() == nil {
			logger.Error("economy loop stopped", "error", err)
		}
	})

	reminders := notify.NewDispatcher(s.store.Notifications, s.dispatcher, nil, 0, logger.With("component", "notify"))
	spawn(func() { reminders.Run(ctx) })

	if backupEvery > 0 {
		scheduler := storage.NewBackupScheduler(
			storage.NewBackupManager(s.db, a.backupDir(dbPath)),
			backupEvery,
			storage.BackupOptions{Password: backupPassword(""), Verify: true},
			logger.With("component", "backup"),
		)
		spawn(func() { _ = scheduler.Run(ctx) })
	}

	spawn(func() {
		err := config.Watch(ctx, a.cfgPath, func(cfg *config.Config) {
			if err := s.products.Replace(cfg.Shop.Products); err != nil {
				logger.Warn("config reload rejected", "error", err)
				return
			}
			s.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypeConfigReloaded, events.ConfigReloadedEvent{
				Path:     a.cfgPath,
				Products: s.products.Len(),
			}, time.Now()))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	})

	fmt.Fprintf(a.out, "Booster Companion running at http://localhost:%d\n", server.Port())
	fmt.Fprintln(a.out, "Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Fprintln(a.out, "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[CLI] Error during shutdown: %v", err)
	}
	wg.Wait()
	return nil
}
