package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleettwin/internal/api"
	"fleettwin/internal/config"
	"fleettwin/internal/metrics"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(log)

	metrics.RegisterDefault()

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		log.Error("failed to init server", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	// Twins
	mux.HandleFunc("/v1/twins", srv.TwinsHandler)
	mux.HandleFunc("/v1/twins/stream", srv.StreamHandler)
	mux.HandleFunc("/v1/twins/", srv.TwinByIDHandler)
	mux.HandleFunc("/v1/refresh", srv.RefreshHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           logMiddleware(log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.Poller.Start()
	defer srv.Poller.Stop()

	log.Info("API listening", "addr", cfg.Listen, "pollInterval", cfg.PollInterval())
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
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

func logMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request", "remote", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
