package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/visualcare-health/treatment-service/internal/auth"
	"github.com/visualcare-health/treatment-service/internal/db"
	httpx "github.com/visualcare-health/treatment-service/internal/http"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	otelCfg := telemetry.LoadConfig()
	provider, err := telemetry.InitProvider(ctx, otelCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	// The publisher is optional; a nil publisher drops events but the API
	// stays up.
	publisher, err := messaging.NewPublisher()
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events will not be published")
		publisher = nil
	} else {
		defer publisher.Close()
	}

	verifier := auth.NewVerifier(auth.LoadConfig())

	permissionsFile := os.Getenv("PERMISSIONS_FILE")
	if permissionsFile == "" {
		permissionsFile = "permissions.yml"
	}
	perms, err := auth.LoadPermissions(permissionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", permissionsFile).Msg("failed to load permissions")
	}

	cache := querycache.New()

	router := httpx.SetupRouter(database, verifier, perms, cache, publisher, metrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      httpx.CORSMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("treatment-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown failed")
	}
}
