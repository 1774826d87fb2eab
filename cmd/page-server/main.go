// Command page-server serves a synthetic, paged table of string rows for the
// grid viewer and for exercising the page client.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/paged-grid/pkg/logging"
	"github.com/Sternrassler/paged-grid/pkg/metrics"
)

const maxPageSize = 1000

var pagesServedTotal = metrics.Factory().NewCounterVec(prometheus.CounterOpts{
	Name: "grid_server_pages_served_total",
	Help: "Total pages served by status",
}, []string{"status"})

type table struct {
	rows    int
	columns int
	logger  zerolog.Logger
}

func main() {
	logging.Setup(logging.ConfigFromEnv())

	port := getEnv("PORT", "8080")
	t := &table{
		rows:    getEnvInt("ROWS", 10000),
		columns: getEnvInt("COLUMNS", 8),
		logger:  logging.NewLogger("page-server"),
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newMux(t),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Int("rows", t.rows).
		Int("columns", t.columns).
		Msg("Starting page server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Page server stopped")
}

func newMux(t *table) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/rows", t.rowsHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (t *table) rowsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		pagesServedTotal.WithLabelValues("400").Inc()
		http.Error(w, "page must be a non-negative integer", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 || size > maxPageSize {
		pagesServedTotal.WithLabelValues("400").Inc()
		http.Error(w, fmt.Sprintf("size must be between 1 and %d", maxPageSize), http.StatusBadRequest)
		return
	}

	start := page * size
	if start >= t.rows {
		pagesServedTotal.WithLabelValues("204").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	end := min(start+size, t.rows)

	rows := make([][]string, 0, end-start)
	for row := start; row < end; row++ {
		rows = append(rows, t.row(row))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"rows": rows}); err != nil {
		t.logger.Warn().Err(err).Int("page", page).Msg("Failed to write page")
		return
	}
	pagesServedTotal.WithLabelValues("200").Inc()

	t.logger.Debug().
		Int("page", page).
		Int("size", size).
		Int("rows", len(rows)).
		Msg("Served page")
}

// row renders the cells of one synthetic row.
func (t *table) row(index int) []string {
	cells := make([]string, t.columns)
	for c := range cells {
		switch c {
		case 0:
			cells[c] = strconv.Itoa(index)
		case 1:
			cells[c] = fmt.Sprintf("item-%05d", index)
		default:
			cells[c] = strconv.Itoa((index*31 + c*17) % 1000)
		}
	}
	return cells
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
