// Command gridview browses a page server in the terminal through a paged row
// source, optionally backed by a Redis page store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/paged-grid/internal/gridview"
	"github.com/Sternrassler/paged-grid/pkg/cache"
	"github.com/Sternrassler/paged-grid/pkg/client"
	"github.com/Sternrassler/paged-grid/pkg/logging"
	"github.com/Sternrassler/paged-grid/pkg/pagination"
)

type options struct {
	serverURL      string
	redisURL       string
	dataset        string
	logFile        string
	pageSize       int
	maxConcurrency int
	columns        int
	rows           int
}

func main() {
	if err := run(loadOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "gridview: %v\n", err)
		os.Exit(1)
	}
}

func loadOptions() options {
	return options{
		serverURL:      getEnv("PAGE_SERVER_URL", "http://localhost:8080/rows"),
		redisURL:       os.Getenv("REDIS_URL"),
		dataset:        getEnv("DATASET", "default"),
		logFile:        os.Getenv("LOG_FILE"),
		pageSize:       getEnvInt("PAGE_SIZE", 100),
		maxConcurrency: getEnvInt("MAX_CONCURRENCY", 5),
		columns:        getEnvInt("COLUMNS", 8),
		rows:           getEnvInt("ROWS", 0),
	}
}

func run(opts options) error {
	logOut, closeLog, err := openLog(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	logCfg := logging.ConfigFromEnv()
	logCfg.Output = logOut
	logging.Setup(logCfg)

	pages, err := client.New(client.DefaultConfig(opts.serverURL))
	if err != nil {
		return fmt.Errorf("create page client: %w", err)
	}
	fetch := client.Rows[[]string](pages)

	if opts.redisURL != "" {
		store, err := connectRedis(opts.redisURL)
		if err != nil {
			return err
		}
		defer store.Close()
		fetch = cache.ReadThrough(cache.NewManager(store), opts.dataset, cache.DefaultTTL, fetch)
		log.Info().Str("dataset", opts.dataset).Msg("Page store enabled")
	}

	relay := &gridview.Relay{}

	cfg := pagination.DefaultConfig()
	cfg.PageSize = opts.pageSize
	cfg.MaxConcurrency = opts.maxConcurrency
	cfg.TotalRows = opts.rows

	src, err := pagination.New(cfg, pagination.Hooks[[]string]{
		Fetch:  fetch,
		Render: gridview.RenderRow,
		Edit:   gridview.EditRow,
		Damage: relay.Damage,
	})
	if err != nil {
		return fmt.Errorf("create row source: %w", err)
	}

	p := tea.NewProgram(gridview.New(src, opts.columns, opts.rows), tea.WithAltScreen())
	relay.Attach(p)

	_, runErr := p.Run()
	if err := src.Close(); err != nil {
		log.Warn().Err(err).Msg("Row source close failed")
	}
	if runErr != nil {
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}

func connectRedis(url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	store := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx).Err(); err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return store, nil
}

// openLog opens path for appending. The terminal belongs to the grid, so
// without a path logs are discarded.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
