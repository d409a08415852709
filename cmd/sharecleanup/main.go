package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/visualcare-health/treatment-service/internal/db"
	"github.com/visualcare-health/treatment-service/internal/patient"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	retention := patient.DefaultShareRetention
	if raw := os.Getenv("SHARE_RETENTION"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Str("value", raw).Msg("invalid SHARE_RETENTION")
		}
		retention = parsed
	}
	log.Info().Dur("retention", retention).Msg("share cleanup job starting")

	database, err := db.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	cleanup := patient.NewShareCleanupService(database, retention)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	count, err := cleanup.CountExpiredShares(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count expired share codes")
	}
	if count == 0 {
		log.Info().Msg("no expired share codes, nothing to do")
		return
	}

	deleted, err := cleanup.CleanupExpiredShares(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}
	log.Info().Int("deleted", deleted).Int("eligible", count).Msg("share cleanup job finished")
}
