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

	"github.com/clinicdesk/frontdesk/internal/api"
	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/db"
	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

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

	// Redis is a soft dependency: without it bookings still work, only the
	// cross-session invalidation channel is lost.
	var notifier redisclient.Notifier = redisclient.NopNotifier{}
	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, change notifications disabled")
		rdb = nil
	} else {
		defer rdb.Close()
		notifier = redisclient.NewRedisNotifier(rdb)
		log.Info().Msg("connected to Redis")
	}

	repo := scheduling.NewPgRepository(pgPool)
	resolver := scheduling.NewExceptionResolver(repo, repo)
	engine := scheduling.NewAdmissionEngine(
		scheduling.NewAvailabilityResolver(repo),
		resolver,
		repo,
		scheduling.DefaultFailurePolicy(),
		log,
	)
	svc := scheduling.NewService(repo, repo, repo, repo, engine, resolver, notifier, log)
	sweeper := scheduling.NewSweeper(repo, cfg.Location(), cfg.AutoMarkNoShowTime, log)

	if rdb != nil {
		sub := redisclient.NewSubscriber(rdb, log)
		sub.OnExceptionsChanged = resolver.Invalidate
		go func() {
			if err := sub.Run(rootCtx); err != nil {
				log.Warn().Err(err).Msg("change subscription ended")
			}
		}()
	}

	// Sweep once on startup, then rely on the worker binary (or POST /sweep)
	// for recurring runs.
	go func() {
		startCtx, cancel := context.WithTimeout(rootCtx, 20*time.Second)
		defer cancel()
		if _, err := sweeper.Sweep(startCtx); err != nil {
			log.Error().Err(err).Msg("startup no-show sweep failed")
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Sweeper: sweeper,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
		Logger:  log,

		WorkdayStart: cfg.WorkdayStart,
		WorkdayEnd:   cfg.WorkdayEnd,
		SlotMinutes:  cfg.MinSlotMinutes,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
}
