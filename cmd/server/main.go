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
	"time"

	"github.com/joho/godotenv"

	"github.com/nzaccagnino/go-sheets/internal/config"
	"github.com/nzaccagnino/go-sheets/internal/crypto"
	"github.com/nzaccagnino/go-sheets/internal/db"
	"github.com/nzaccagnino/go-sheets/internal/logging"
	"github.com/nzaccagnino/go-sheets/internal/server"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config.yml")
	flag.Parse()

	// A missing .env is fine; SHEETS_* may come from the environment.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cipher, err := crypto.New(cfg.KDF.Params())
	if err != nil {
		return fmt.Errorf("invalid kdf settings: %w", err)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	st := store.New(database.Documents(),
		store.WithCipher(cipher),
		store.WithLogger(log.With("component", "store")),
	)

	limiter := server.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go limiter.Run(ctx, time.Minute)

	srv := server.New(st,
		server.WithToken(cfg.Server.Token),
		server.WithLogger(log.With("component", "http")),
		server.WithRateLimiter(limiter),
	)
	if cfg.Server.Token == "" {
		log.Warn(ctx, "no API token configured; /api is open to local clients")
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting server", "addr", cfg.Server.Addr, "db", cfg.DBPath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
