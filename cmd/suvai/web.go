package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"suvai/internal/admin"
	"suvai/internal/auth"
	"suvai/internal/cache"
	"suvai/internal/cart"
	"suvai/internal/cartapi"
	"suvai/internal/config"
	"suvai/internal/coupons"
	"suvai/internal/games"
	"suvai/internal/logs"
	"suvai/internal/mail"
	"suvai/internal/orders"
	"suvai/internal/recipes"
	"suvai/internal/users"
)

func runServer(cfg *config.Config, addr string) error {
	store, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Error("failed to close cache", "error", err)
			}
		}()
	}

	authClient, err := auth.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create auth client: %w", err)
	}

	mux, _ := newMux(cfg, store, authClient)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           serverHandler(authClient, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving Suvai", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

// newMux wires every API surface onto one mux. The returned readiness
// check is already mounted at /ready.
func newMux(cfg *config.Config, store cache.ListCache, authClient auth.AuthClient) (*http.ServeMux, *readiness) {
	mux := http.NewServeMux()
	authClient.Register(mux)

	userStorage := users.NewStorage(store)
	catalog := recipes.NewCatalog(cfg.Catalog, store)
	validator := coupons.NewService(cfg.Coupons)
	registry := coupons.NewRegistry(store)
	gameService := games.NewService(cfg.Catalog, registry)
	carts := cart.NewStore(store)
	orderStore := orders.NewStore(store)

	users.NewHandler(userStorage, authClient).Register(mux)
	recipes.NewHandler(catalog).Register(mux)
	games.NewHandler(gameService, registry, authClient).Register(mux)
	cartapi.NewHandler(carts, catalog, validator, authClient).Register(mux)
	orders.NewHandler(orderStore, carts, userStorage, authClient, mail.New(cfg.SendGrid, store)).Register(mux)
	mux.Handle("GET /api/home", &homeHandler{recipes: catalog, games: gameService})

	adminMux := http.NewServeMux()
	orders.NewAdminHandler(orderStore).Register(adminMux)
	admin.NewHandler(userStorage).Register(adminMux)
	logs.NewHandler(logReader(cfg.LogSink)).Register(adminMux)
	mux.Handle("/api/admin/", admin.New(cfg, authClient).Enforce(adminMux))

	ready := &readiness{}
	ready.AddStartup(readyFunc(func(ctx context.Context) error {
		_, err := catalog.All(ctx)
		return err
	}))
	if r, ok := store.(Readyable); ok {
		ready.AddLive(r)
	}
	mux.Handle("/ready", ready)
	return mux, ready
}

func logReader(cfg config.LogSinkConfig) *logs.Reader {
	if !cfg.Enabled() {
		return nil
	}
	r, err := logs.NewReader(cfg)
	if err != nil {
		slog.Warn("log viewer disabled", "error", err)
		return nil
	}
	return r
}

func gracefulShutdown(svr *http.Server) error {
	// Give outstanding requests 25 seconds to complete (kubernetes has 30 second grace period)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	slog.Info("Server stopped")
	return nil
}
