package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	pairbot "github.com/pulseofpair/pairsync/internal/bot"
	"github.com/pulseofpair/pairsync/internal/config"
	"github.com/pulseofpair/pairsync/internal/database"
	"github.com/pulseofpair/pairsync/internal/handler"
	"github.com/pulseofpair/pairsync/internal/jobs"
	"github.com/pulseofpair/pairsync/internal/metrics"
	"github.com/pulseofpair/pairsync/internal/middleware"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/notify"
	"github.com/pulseofpair/pairsync/internal/redis"
	"github.com/pulseofpair/pairsync/internal/repository"
	"github.com/pulseofpair/pairsync/internal/service"
	"github.com/pulseofpair/pairsync/internal/sse"
	"github.com/pulseofpair/pairsync/internal/telegram"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	invitationRepo := repository.NewInvitationRepository(db.DB)
	pairRepo := repository.NewPairRepository(db.DB)
	promptRepo := repository.NewPromptRepository(db.DB)
	answerRepo := repository.NewAnswerRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	telegramBot, err := bot.New(cfg.TelegramBotToken,
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(time.Minute, &http.Client{Timeout: time.Minute + config.TelegramRequestTimeout}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram bot")
	}

	pairService := service.NewPairService(pairRepo, userRepo)
	invitationService := service.NewInvitationService(invitationRepo, pairRepo, userRepo, broker, cfg.InvitationTTL())
	identityService := service.NewIdentityService(
		telegram.NewValidator(cfg.TelegramBotToken, cfg.InitDataMaxAge()),
		userRepo, invitationService, pairService,
	)
	schedulerService := service.NewSchedulerService(promptRepo, answerRepo, pairService)
	answerService := service.NewAnswerService(promptRepo, answerRepo, pairService, broker)
	reminderService := service.NewReminderService(
		promptRepo, answerRepo, userRepo, notificationRepo, pairService,
		service.NewThrottle(redisClient.Client),
		notify.NewTelegramNotifier(telegramBot, cfg.TelegramWebAppURL),
		broker,
		map[model.PromptKind]time.Duration{
			model.PromptKindDaily: cfg.DailyReminderCooldown(),
			model.PromptKindTune:  cfg.TuneReminderCooldown(),
		},
	)

	commands := pairbot.NewCommands(invitationService, userRepo, pairbot.Options{
		WebAppURL:   cfg.TelegramWebAppURL,
		BotUsername: cfg.TelegramBotUsername,
		AppName:     cfg.TelegramAppName,
	})

	authMiddleware := middleware.NewAuthMiddleware(identityService)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.APIRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	usersHandler := handler.NewUsersHandler(identityService)
	pairHandler := handler.NewPairHandler(pairService)
	invitationsHandler := handler.NewInvitationsHandler(invitationService, commands)
	promptsHandler := handler.NewPromptsHandler(schedulerService)
	answersHandler := handler.NewAnswersHandler(answerService)
	notificationsHandler := handler.NewNotificationsHandler(reminderService)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := db.Ping(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		} else if err := redisClient.Ping(r.Context()).Err(); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		// SSE stays outside the request timeout and body limit.
		r.Get("/events", eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Use(bodyLimitMiddleware.Handler)

			r.Get("/pair", pairHandler.Get)
			r.Mount("/users", usersHandler.Routes())
			r.Mount("/invitations", invitationsHandler.Routes())
			r.Mount("/prompts", promptsHandler.Routes())
			r.Mount("/answers", answersHandler.Routes())
			r.Mount("/notifications", notificationsHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(invitationRepo, notificationRepo, cfg.NotificationRetention(), cfg.CleanupSchedule)
	if err := cleanupJob.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cleanup job")
	}
	defer cleanupJob.Stop()

	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()
	if cfg.TelegramBotPolling {
		commands.Register(telegramBot)
		go telegramBot.Start(botCtx)
		log.Info().Msg("telegram bot polling started")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	stopBot()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
