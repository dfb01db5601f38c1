package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stayfront/outreach/internal/config"
	"github.com/stayfront/outreach/internal/infra/database"
	"github.com/stayfront/outreach/internal/infra/http/handlers"
	"github.com/stayfront/outreach/internal/infra/http/middleware"
	"github.com/stayfront/outreach/internal/infra/integration/openai"
	"github.com/stayfront/outreach/internal/infra/mail"
	"github.com/stayfront/outreach/internal/infra/queue"
	"github.com/stayfront/outreach/internal/infra/worker"
	"github.com/stayfront/outreach/internal/logging"
	"github.com/stayfront/outreach/internal/usecase"
)

func main() {
	godotenv.Load()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// Repositories
	prospectRepo := database.NewProspectRepository(db)
	campaignRepo := database.NewCampaignRepository(db)
	mailboxRepo := database.NewMailboxRepository(db)
	emailRepo := database.NewEmailRepository(db)
	activityRepo := database.NewActivityRepository(db)

	if err := mailboxRepo.SyncDailyLimits(context.Background(), cfg); err != nil {
		logging.Logger.Fatal().Err(err).Msg("failed to sync warm-up daily limits")
	}

	// Collaborators
	generator := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIURL, os.Getenv("OPENAI_MODEL"))
	transport := mail.NewSMTPSender()
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	// Engine
	strategies := usecase.DefaultRegistry()
	eligibility := usecase.NewEligibilityFilter(prospectRepo, emailRepo, cfg.MinProspectScore)
	allocator := usecase.NewCampaignAllocator(campaignRepo, emailRepo, strategies)
	health := usecase.NewHealthTracker(cfg.HealthPenalty, cfg.HealthPauseFloor)
	pool := usecase.NewMailboxPool(mailboxRepo, health, cfg.MinHealthScore)

	dispatcher := usecase.NewDispatcher(
		eligibility, allocator, pool,
		generator, transport,
		emailRepo, prospectRepo, campaignRepo, activityRepo, producer,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WorkerEnabled {
		w := worker.NewDispatchWorker(dispatcher, cfg.WorkerInterval)
		go w.Start(ctx)
	}

	// Handlers
	dispatchHandler := handlers.NewDispatchHandler(dispatcher)
	mailboxHandler := handlers.NewMailboxHandler(mailboxRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, cfg.OpenAIURL)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/dispatch/tick", dispatchHandler.Handle)
	r.Get("/mailboxes", mailboxHandler.HandleList)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a tick response waits out the stagger delay
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info().Int("port", cfg.Port).Msg("send engine listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error().Err(err).Msg("shutdown was not clean")
	}
}
