package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/config"
	"github.com/meikuraledutech/graphplan/engine"
	"github.com/meikuraledutech/graphplan/logger"
	"github.com/meikuraledutech/graphplan/metrics"
	"github.com/meikuraledutech/graphplan/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", logger.Error(err))
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	// Without DATABASE_URL workspaces live in memory only.
	var store graphplan.Store
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("connect", logger.Error(err))
			os.Exit(1)
		}
		defer pool.Close()

		pg := postgres.New(pool)
		if err := pg.CreateSchema(ctx); err != nil {
			log.Error("schema", logger.Error(err))
			os.Exit(1)
		}
		store = pg
	}

	srv := newServer(cfg, log, store)
	log.Info("listening",
		slog.String("addr", cfg.ListenAddr),
		slog.Bool("persistent", store != nil))
	if err := srv.routes().Listen(cfg.ListenAddr); err != nil {
		log.Error("listen", logger.Error(err))
		os.Exit(1)
	}
}

func newServer(cfg *config.Config, log *slog.Logger, store graphplan.Store) *server {
	ss := newSessions(store, cfg.HistoryCapacity, log.With(logger.Scope("sessions")))
	m := metrics.New()
	m.TrackOpenWorkspaces(ss.count)
	return &server{
		engine: engine.New(log,
			engine.WithSpacing(cfg.Layout.NodeSpacing, cfg.Layout.GridSpacing),
			engine.WithSeed(cfg.Layout.Seed)),
		sessions: ss,
		metrics:  m,
		log:      log.With(logger.Scope("http")),
	}
}
