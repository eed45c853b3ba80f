package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "noshow-worker").Logger()
	log.Info().Msg("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.SweepInterval).
		Str("timezone", cfg.ClinicTimezone).
		Msg("running no-show sweeper")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	repo := scheduling.NewPgRepository(pgPool)
	sweeper := scheduling.NewSweeper(repo, cfg.Location(), cfg.AutoMarkNoShowTime, log)

	// The interval only needs to catch day rollover; concurrent sweeps from
	// other processes are safe because the transition is conditional.
	sweeper.Run(rootCtx, cfg.SweepInterval)

	log.Info().Msg("shutdown signal received, stopping noshow-worker")
}
