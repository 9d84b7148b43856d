package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SurveyBot/auth"
	"SurveyBot/config"
	"SurveyBot/handler"
	"SurveyBot/metrics"
	"SurveyBot/repo"
	"SurveyBot/survey"
)

// storage is what both backends provide: the submission store, the
// moderator store and a Close.
type storage interface {
	survey.SubmissionStore
	auth.ModeratorStore
	Close() error
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("error loading configuration")
	}

	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("error closing storage")
		}
	}()
	log.Info().Str("backend", cfg.Storage).Msg("storage ready")

	policy, err := auth.NewPolicy(ctx, cfg.AdminIDs, store, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing authorization policy")
	}

	sessions := survey.NewSessions()
	engine := survey.NewEngine(survey.Options{
		Events:        cfg.Events,
		FestivalEvent: cfg.FestivalEvent,
		ProfProbs:     cfg.ProfProbs,
	}, sessions, store, policy, log.Logger)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server started")

	if cfg.SessionTTL > 0 {
		go reapSessions(ctx, sessions, cfg.SessionTTL)
	}

	h := handler.NewSurveyBotHandler(engine, log.Logger)
	opts := []bot.Option{
		bot.WithDefaultHandler(h.Handle),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating bot")
	}

	log.Info().Msg("bot started")
	b.Start(ctx)
	log.Info().Msg("bot stopped")
}

// reapSessions drops sessions idle longer than ttl. The engine itself never
// expires anything; this is deployment policy.
func reapSessions(ctx context.Context, sessions *survey.Sessions, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := sessions.PurgeIdle(ttl); purged > 0 {
				metrics.ActiveSessions.Set(float64(sessions.Len()))
				log.Info().Int("purged", purged).Msg("idle sessions purged")
			}
		}
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	if cfg.Storage == config.StorageFirebase {
		return repo.NewFirebaseConnector(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseDatabaseURL)
	}
	return repo.NewSQLite(cfg.SQLitePath)
}
