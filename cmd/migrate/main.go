package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"docqa-backend/internal/config"
	"docqa-backend/internal/platform/postgres"
	"docqa-backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config failed")
	}
	logger := telemetry.Setup(cfg.App.Env, cfg.App.LogLevel)

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("open postgres failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}
	logger.Info().Str("db", cfg.Postgres.DB).Msg("migrations applied")
}
