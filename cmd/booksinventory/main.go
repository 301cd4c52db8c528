// Command booksinventory serves the books inventory API over a SQL store
// fronted by a local and a Redis cache tier.
package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/internal/books"
	"github.com/goliatone/go-tiered-cache/internal/cacheinfra"
	"github.com/goliatone/go-tiered-cache/internal/config"
	"github.com/goliatone/go-tiered-cache/internal/httpapi"
	"github.com/goliatone/go-tiered-cache/pkg/di"
)

func main() {
	if err := run(); err != nil {
		slog.Error("booksinventory stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := books.OpenDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.RetryAttempts, cfg.RetryInterval)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := books.Migrate(ctx, db, logger); err != nil {
		return err
	}

	client, err := cacheinfra.OpenRedis(ctx, cfg.RedisURL, cfg.RetryAttempts, cfg.RetryInterval)
	if err != nil {
		return err
	}
	defer client.Close()

	remote := cache.NewRedisRemote(client, cfg.Cache, cache.RedisRemoteOptions{Envelope: cfg.RedisEnvelope})
	container, err := di.NewContainer(cfg.Cache, remote, logger)
	if err != nil {
		return err
	}

	orc, err := di.NewOrchestrator[int64, books.Book](container, books.NewStore(db))
	if err != nil {
		return err
	}

	handler := httpapi.NewServer(orc, map[string]httpapi.HealthCheck{
		"database": db.PingContext,
		"redis":    func(ctx context.Context) error { return pingRedis(ctx, client) },
	}, logger)

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"address", ln.Addr().String(),
			"driver", cfg.DatabaseDriver,
			"envelope", cfg.RedisEnvelope,
		)
		if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("shutdown completed", "stats", orc.Stats())
	return nil
}

func pingRedis(ctx context.Context, client redis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
