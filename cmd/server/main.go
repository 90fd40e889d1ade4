package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/activity"
	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/gotrue"
	httpserver "github.com/Clark-Hu/movie-catalog/internal/http"
	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()
	prometheus.MustRegister(metrics.NewPoolCollector(st.Stats))

	provider, err := gotrue.NewClient(cfg.AuthURL, cfg.AuthAPIKey, gotrue.Options{
		Timeout: time.Duration(cfg.AuthTimeoutSecs) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("init auth provider client", zap.Error(err))
	}

	// Local verification skips a provider round trip per request.
	var verifier auth.Verifier = provider
	if cfg.AuthJWTSecret != "" {
		verifier = auth.JWTVerifier{Secret: []byte(cfg.AuthJWTSecret), Audience: cfg.AuthJWTAudience}
		logger.Info("auth: verifying tokens locally")
	}

	events, err := activity.New(cfg.NATSURL, logger)
	if err != nil {
		logger.Fatal("connect nats", zap.Error(err))
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn("drain nats", zap.Error(err))
		}
	}()

	server := httpserver.New(cfg, httpserver.Dependencies{
		Store:    st,
		Repo:     repository.New(st),
		Verifier: verifier,
		Accounts: provider,
		Events:   events,
		Logger:   logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}
