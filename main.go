package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"auction-house/internal/clock"
	"auction-house/internal/config"
	"auction-house/internal/fanout"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/internal/repository/postgres"
	"auction-house/internal/server"
	"auction-house/internal/settlement"
	"auction-house/utils"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	clk := clock.Real{}

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer closeStore()

	hub := fanout.NewHub(cfg.Fanout.SubscriberBuffer)
	reg := registry.New(store, hub, clk)

	sweeper := settlement.NewSweeper(reg, store, clk, cfg.Settlement.SweepInterval.Std())
	go sweeper.Run(ctx)

	router := server.SetupRouter(reg, hub, clk)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"port":   cfg.Server.Port,
			"driver": cfg.Database.Driver,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("server error", map[string]any{"error": err.Error()})
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	utils.Info("server stopped", nil)
	return nil
}

// openStore opens the configured AuctionStore implementation.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.AuctionStore, func(), error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return repository.NewMemoryStore(), func() {}, nil
	}
}
