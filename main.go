package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Syfaro/paprika-go/mirror"
	"github.com/Syfaro/paprika-go/paprika"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") == "true" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	client, err := paprikaClient(ctx)
	if err != nil {
		return err
	}
	logger.Info("authenticated with paprika")

	service, err := mirror.NewSyncService(ctx, pool, client, &mirror.ServiceConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("initialize sync service: %w", err)
	}

	interval := 5 * time.Minute
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		interval, err = time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SYNC_INTERVAL: %w", err)
		}
	}

	mux := http.NewServeMux()
	handlers := mirror.NewHTTPHandlers(service, logger)
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		protected := http.NewServeMux()
		handlers.Register(protected)
		auth := mirror.NewJWTAuth(secret)
		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("/", auth.Middleware(protected))
	} else {
		handlers.Register(mux)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("sync loop started", "interval", interval)
		if err := service.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("sync loop: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		stop()
		shutdown(server, logger)
		return err
	}
	shutdown(server, logger)
	return nil
}

func shutdown(server *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}

// paprikaClient authenticates from the environment: either a pre-issued
// PAPRIKA_TOKEN, or PAPRIKA_EMAIL/PAPRIKA_PASSWORD exchanged at startup.
func paprikaClient(ctx context.Context) (*paprika.Client, error) {
	if token := os.Getenv("PAPRIKA_TOKEN"); token != "" {
		return paprika.NewClient(token), nil
	}
	email, password := os.Getenv("PAPRIKA_EMAIL"), os.Getenv("PAPRIKA_PASSWORD")
	if email == "" || password == "" {
		return nil, fmt.Errorf("PAPRIKA_TOKEN or PAPRIKA_EMAIL/PAPRIKA_PASSWORD is required")
	}
	client, err := paprika.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("paprika login: %w", err)
	}
	return client, nil
}
