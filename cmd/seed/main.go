// cmd/seed/main.go: loads demo suppliers, models and colors.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"jourdash/internal/config"
	"jourdash/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := infra.SeedReferenceData(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("reference data seeded")
}
