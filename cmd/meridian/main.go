package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-pos/meridian-pos/internal/app"
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/credentials"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	metrics := observability.NewMetrics()
	store := filestore.New(logger, metrics)

	// Hash any plaintext passwords left in the users file before the
	// credential store loads it.
	if migrated, err := credentials.MigratePlaintext(store, cfg.UsersFile, logger); err != nil {
		logger.Error("password migration", slog.Any("error", err))
		os.Exit(1)
	} else if migrated > 0 {
		logger.Info("hashed legacy plaintext passwords", slog.Int("count", migrated))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		products *catalog.Repository
		roster   *customers.Repository
		creds    *credentials.Repository
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = catalog.Open(store, cfg.ProductsFile, logger)
		return err
	})
	g.Go(func() error {
		var err error
		roster, err = customers.Open(store, cfg.CustomersFile, logger)
		return err
	})
	g.Go(func() error {
		var err error
		creds, err = credentials.Open(store, cfg.UsersFile, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("open stores", slog.Any("error", err))
		os.Exit(1)
	}

	watcher := catalog.NewWatcher(products, cfg.WatchInterval, cfg.WatchDebounce, logger, metrics)
	watcher.OnCatalogChanged(func(snapshot []catalog.Product) {
		logger.Info("catalog snapshot refreshed", slog.Int("products", len(snapshot)))
	})
	watcher.Start(ctx)

	logger.Info("meridian core started",
		slog.Int("products", products.Count()),
		slog.Int("customers", len(roster.All())),
		slog.Int("users", len(creds.All())),
		slog.String("data_dir", cfg.DataDir),
	)

	<-ctx.Done()
	watcher.Stop()
	logger.Info("meridian core stopped")
}
