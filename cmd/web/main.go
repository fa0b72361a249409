package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contestpush/internal/api"
	"contestpush/internal/config"
	"contestpush/internal/contest"
	"contestpush/internal/handlers"
	"contestpush/pkg/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("contestpush config loaded",
		"bind_addr", cfg.BindAddr,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
		"channel_buffer", cfg.ChannelBuffer,
		"keepalive", cfg.Keepalive,
		"user_header", cfg.UserHeader,
	)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry := realtime.NewRegistry(slog.Default(), realtime.NewMetrics(promReg))
	store := contest.NewStore(registry, slog.Default())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(slog.Default(), cfg.UserHeader))
	r.Use(middleware.Recoverer)

	handlers.NewStreamHandler(registry, cfg.UserHeader, cfg.ChannelBuffer, cfg.Keepalive).RegisterRoutes(r)
	handlers.NewStatusHandler(registry, cfg.Keepalive).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	// Streams stay open indefinitely; only the JSON API gets a deadline.
	api.Register(r.With(middleware.Timeout(15*time.Second)), registry, store)

	server := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("contestpush listening", "addr", cfg.BindAddr, "docs", "/docs")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	count := registry.CountConnections()
	slog.Info("shutting down", "users", count.Users, "channels", count.Channels)
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
