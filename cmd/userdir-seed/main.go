package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/user-directory/pkg/cache"
	"github.com/Sternrassler/user-directory/pkg/config"
	"github.com/Sternrassler/user-directory/pkg/logging"
	"github.com/Sternrassler/user-directory/pkg/store"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default $CONFIG_FILE)")
	file := flag.String("file", "usernames.txt", "newline-separated list of user names")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  true,
		Service: "userdir-seed",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := seed(ctx, cfg, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Error seeding database")
	}

	log.Info().Int("users", n).Msg("Users inserted successfully")
}

// inserter writes a batch of users in one transaction.
type inserter interface {
	CreateUsers(ctx context.Context, names []string) (int, error)
}

// invalidator drops every cached page.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

func seed(ctx context.Context, cfg *config.Config, path string) (int, error) {
	db := cfg.Database
	if db.Driver == config.DriverMemory {
		return 0, fmt.Errorf("seeding needs a database driver, not %q", config.DriverMemory)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open names file: %w", err)
	}
	defer f.Close()

	names, err := readNames(f)
	if err != nil {
		return 0, err
	}

	pg, err := store.Open(ctx, db.Driver, db.DSN(), store.DefaultOptions())
	if err != nil {
		return 0, fmt.Errorf("open database %s: %w", db.Redacted(), err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	var pages invalidator
	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(cfg.Redis.URL)
		if err != nil {
			return 0, err
		}
		defer client.Close()
		pages = cache.NewManager(client, cfg.Redis.PageTTL)
	}

	return insert(ctx, pg, pages, names)
}

// insert stores names and, when a page cache is configured, invalidates it so
// a running server stops serving pages cached before the seed.
func insert(ctx context.Context, st inserter, pages invalidator, names []string) (int, error) {
	n, err := st.CreateUsers(ctx, names)
	if err != nil {
		return 0, err
	}

	if pages != nil {
		if err := pages.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("Page cache invalidation failed; cached pages expire after their TTL")
		}
	}

	return n, nil
}

// readNames returns one name per non-blank line, trimmed.
func readNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}
