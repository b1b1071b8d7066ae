package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinelog/db"
	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/config"
	httpserver "github.com/Clark-Hu/cinelog/internal/http"
	"github.com/Clark-Hu/cinelog/internal/marks"
	"github.com/Clark-Hu/cinelog/internal/repository"
	"github.com/Clark-Hu/cinelog/internal/session"
	"github.com/Clark-Hu/cinelog/internal/state"
	"github.com/Clark-Hu/cinelog/internal/store"
)

const sessionPurgeInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "cinelog",
		Level:  hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
		Output: os.Stdout,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}
	if lvl := hclog.LevelFromString(cfg.LogLevel); lvl != hclog.NoLevel {
		logger.SetLevel(lvl)
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger.Named("store"),
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(dbCtx, db.Migrations); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	api, err := backend.NewHTTPClient(cfg.BackendURL, time.Duration(cfg.BackendTimeoutSecs)*time.Second, logger.Named("backend"))
	if err != nil {
		logger.Error("init backend client", "error", err)
		os.Exit(1)
	}

	repo := repository.New(st)
	tracker := marks.NewTracker(api, logger.Named("marks"))
	sessions := session.NewManager(api, repo.Sessions, session.Options{
		TTL:    time.Duration(cfg.SessionTTLHours) * time.Hour,
		Marks:  tracker,
		Logger: logger.Named("session"),
	})
	cache := state.NewCache(api, cfg.PosterBaseURL, logger.Named("state"))
	server := httpserver.New(cfg, st, api, cache, sessions, tracker, logger.Named("http"))

	if err := cache.Load(ctx); err != nil {
		logger.Warn("initial catalog load failed, pages will retry", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := sessions.PurgeExpired(gctx)
				if err != nil {
					logger.Warn("purge expired sessions", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("purged expired sessions", "count", n)
				}
			}
		}
	})

	logger.Info("listening", "port", cfg.Port, "backend", cfg.BackendURL)
	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", "error", err)
	}
}
