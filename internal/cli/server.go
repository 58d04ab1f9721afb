package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trivia-buzzer-service/internal/config"
	"trivia-buzzer-service/internal/domain"
	"trivia-buzzer-service/internal/engine"
	"trivia-buzzer-service/internal/infra/memory"
	natssink "trivia-buzzer-service/internal/infra/nats"
	pgloader "trivia-buzzer-service/internal/infra/postgres"
	redisstore "trivia-buzzer-service/internal/infra/redis"
	transport "trivia-buzzer-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the buzzer match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	bank := memory.NewQuestionBank(loader, questionTTL)

	var settings engine.SettingsProvider
	if pool != nil {
		settings = pgloader.NewSettingsProvider(pool)
	} else {
		mem := memory.NewSettingsProvider(nil)
		mem.Set("", cfg.Timing)
		settings = mem
	}

	var matches engine.MatchStore
	var results engine.ResultStore
	if redisClient != nil {
		matches = redisstore.NewMatchStore(redisClient)
		results = redisstore.NewResultStore(redisClient)
	} else {
		memMatches := memory.NewMatchStore()
		seedDemoMatch(ctx, memMatches)
		matches = memMatches
		results = memory.NewResultStore()
	}

	var sink engine.NotificationSink = memory.NewNotificationSink()
	if cfg.NATS.URL != "" {
		subject := cfg.NATS.Subject
		if subject == "" {
			subject = "buzzer.notifications"
		}
		natsSink, err := natssink.Connect(cfg.NATS.URL, subject)
		if err != nil {
			return err
		}
		defer natsSink.Close()
		sink = natsSink
	}

	clock := clockwork.NewRealClock()
	coordinator := engine.NewCoordinator(matches, results, sink, clock)
	service := engine.NewService(bank, settings, matches, coordinator, clock)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting buzzer match service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoMatch registers a small match so the service is playable without
// a document store behind it.
func seedDemoMatch(ctx context.Context, matches *memory.MatchStore) {
	rec := domain.MatchRecord{
		ID:          "demo-match",
		OrganizerID: uuid.New().String(),
		Roster:      []string{"p1", "p2"},
		Status:      domain.MatchWaiting,
		QuestionIDs: []string{"q1", "q2"},
	}
	if err := matches.Create(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("failed to seed demo match")
	}
}

// sampleQuestions provides a minimal question set; swap the loader with the
// document DB-backed one in production.
func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {
			ID:          "q1",
			Text:        "Which planet in the solar system has the most moons?",
			Answer:      "Saturn",
			Distractors: []string{"Jupiter", "Neptune", "Uranus"},
			Subject:     "science",
			Difficulty:  2,
		},
		"q2": {
			ID:          "q2",
			Text:        "In what year did the Berlin Wall fall?",
			Answer:      "1989",
			Distractors: []string{"1987", "1991"},
			Subject:     "history",
			Difficulty:  1,
		},
	}
}
