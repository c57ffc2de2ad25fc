// Package cli implements the booster-companion command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/config"
	"github.com/ramonehamilton/booster-companion/internal/draw"
	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/notify"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// app holds the state shared by every command of one invocation.
type app struct {
	out io.Writer

	flagConfig  string
	flagDB      string
	flagNoColor bool
	flagVerbose bool

	cfg     *config.Config
	cfgPath string
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "booster-companion",
		Short: "Open boosters, grow your collection and manage your coins",
		Long: `booster-companion runs a card collection economy on your machine.

Free boosters replenish on a cooldown timer. Opening one draws a card by rarity,
selling cards earns coins, and coins buy booster bundles or skip the wait.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.flagConfig, "config", "", "Config file path (default: ~/.booster-companion/config.toml)")
	root.PersistentFlags().StringVar(&a.flagDB, "db", "", "Database path (overrides the config)")
	root.PersistentFlags().BoolVar(&a.flagNoColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVarP(&a.flagVerbose, "verbose", "v", false, "Log economy events")

	root.AddCommand(
		a.statusCmd(),
		a.openCmd(),
		a.sellCmd(),
		a.sellDupesCmd(),
		a.skipCmd(),
		a.shopCmd(),
		a.buyCmd(),
		a.collectionCmd(),
		a.catalogCmd(),
		a.historyCmd(),
		a.simulateCmd(),
		a.serveCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) init() error {
	if a.flagNoColor {
		color.NoColor = true
	}
	if !a.flagVerbose {
		log.SetOutput(io.Discard)
	}

	path := a.flagConfig
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.flagDB != "" {
		cfg.Storage.Path = a.flagDB
	}
	a.cfg, a.cfgPath = cfg, path
	return nil
}

// session is an opened store and a loaded economy service.
type session struct {
	db         *storage.DB
	store      *storage.Store
	svc        *economy.Service
	products   *purchase.ProductSet
	dispatcher *events.EventDispatcher
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		log.Printf("[CLI] Error closing database: %v", err)
	}
}

// open loads the economy. Reminders go to notifier, or to the store when nil.
func (a *app) open(ctx context.Context, notifier notify.Scheduler) (*session, error) {
	dbPath, err := a.cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	timerCfg, err := a.cfg.TimerConfig()
	if err != nil {
		return nil, err
	}
	engagement, err := a.cfg.GetEngagementReminder()
	if err != nil {
		return nil, fmt.Errorf("invalid engagement reminder: %w", err)
	}

	db, err := storage.Open(storage.DefaultConfig(dbPath))
	if err != nil {
		return nil, err
	}
	store := storage.NewStore(db)

	products, err := purchase.NewProductSet(a.cfg.Shop.Products)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cat := catalog.Default()
	engine, err := draw.New(cat, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(events.NewLoggingObserver(a.cfg.App.DebugMode))

	if notifier == nil {
		notifier = notify.NewStoreScheduler(store.Notifications)
	}

	svc, err := economy.New(economy.Options{
		Catalog:            cat,
		Engine:             engine,
		Store:              store,
		Timer:              &timerCfg,
		Publisher:          dispatcher,
		Notifier:           notifier,
		Processor:          purchase.NewProcessor(purchase.NewSandboxProvider(), products, rate.Limit(a.cfg.API.PurchaseRate), a.cfg.API.PurchaseBurst),
		EngagementReminder: engagement,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	report, err := svc.Load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if report.TamperDetected {
		fmt.Fprintln(a.out, color.YellowString("warning:"), "the system clock moved backwards; the booster timer was reset")
	}
	if report.StarterGrant > 0 {
		fmt.Fprintf(a.out, "Welcome! You received %s starter boosters.\n", color.GreenString("%d", report.StarterGrant))
	} else if report.Granted > 0 {
		fmt.Fprintf(a.out, "While you were away, %s free boosters arrived.\n", color.GreenString("%d", report.Granted))
	}

	return &session{db: db, store: store, svc: svc, products: products, dispatcher: dispatcher}, nil
}

// withSession runs fn against a freshly loaded economy.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	s, err := a.open(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
