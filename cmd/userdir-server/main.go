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

	"github.com/Sternrassler/user-directory/pkg/api"
	"github.com/Sternrassler/user-directory/pkg/cache"
	"github.com/Sternrassler/user-directory/pkg/config"
	"github.com/Sternrassler/user-directory/pkg/directory"
	"github.com/Sternrassler/user-directory/pkg/logging"
	"github.com/Sternrassler/user-directory/pkg/metrics"
	"github.com/Sternrassler/user-directory/pkg/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default $CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Service: "userdir-server",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	handle, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := handle.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage")
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewClient(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		log.Info().Str("addr", redisClient.Options().Addr).Dur("ttl", cfg.Redis.PageTTL).Msg("Page cache enabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newMux(handle, redisClient, cfg.Redis.PageTTL),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting user directory server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore opens the configured storage handle. Postgres tables are created
// if missing.
func openStore(ctx context.Context, db config.DatabaseConfig) (store.Handle, error) {
	if db.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage; users are lost on restart")
		return store.NewMemory(nil), nil
	}

	opts := store.DefaultOptions()
	if db.MaxOpenConns > 0 {
		opts.MaxOpenConns = db.MaxOpenConns
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := store.Open(openCtx, db.Driver, db.DSN(), opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", db.Redacted(), err)
	}
	if err := pg.EnsureSchema(openCtx); err != nil {
		pg.Close()
		return nil, err
	}

	log.Info().Str("driver", db.Driver).Str("dsn", db.Redacted()).Msg("Connected to database")
	return pg, nil
}

// newMux wires storage, the optional page cache, the API routes and the
// metrics endpoint.
func newMux(handle store.Handle, redisClient *redis.Client, ttl time.Duration) *http.ServeMux {
	checks := map[string]api.Pinger{"storage": handle}

	var dirCfg directory.Config
	if redisClient != nil {
		pageCache := cache.NewManager(redisClient, ttl)
		dirCfg.Cache = pageCache
		checks["redis"] = pageCache
	}

	svc := directory.NewService(handle, dirCfg)

	mux := http.NewServeMux()
	api.NewHandler(svc, checks, logging.NewLogger("api")).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	return mux
}
