// Command courts-server serves the court directory over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marcus/courts/internal/api"
	"github.com/marcus/courts/internal/serverdb"
)

func main() {
	cfg := api.LoadConfig()
	slog.SetDefault(slog.New(newHandler(cfg)))

	// "courts-server seed" loads the demo court and exits
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := runSeed(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	store, err := serverdb.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open server db", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.SeedDemo {
		if seeded, err := store.SeedDemo(); err != nil {
			slog.Error("seed demo court", "err", err)
		} else if seeded {
			slog.Info("seeded demo court")
		}
	}

	srv, err := api.NewServer(cfg, store)
	if err != nil {
		slog.Error("create server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(); err != nil {
		slog.Error("start server", "err", err)
		os.Exit(1)
	}
	slog.Info("server started", "addr", cfg.ListenAddr, "db", cfg.DBPath, "schema", store.SchemaVersion())

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func runSeed(cfg api.Config) error {
	store, err := serverdb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	seeded, err := store.SeedDemo()
	if err != nil {
		return err
	}
	if seeded {
		fmt.Println("seeded demo court")
	} else {
		fmt.Println("database already has courts, nothing to seed")
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(cfg api.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.NewJSONHandler(os.Stderr, opts)
}
