package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sfhouse/intake/internal/handlers"
	"github.com/sfhouse/intake/internal/mailer"
	"github.com/sfhouse/intake/internal/repository"
	"github.com/sfhouse/intake/internal/service"
	"github.com/sfhouse/intake/pkg/config"
	"github.com/sfhouse/intake/pkg/database"
	"github.com/sfhouse/intake/pkg/events"
	"github.com/sfhouse/intake/pkg/logger"
	mw "github.com/sfhouse/intake/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	clientRepo := repository.NewClientRepository(pool)
	visitRepo := repository.NewVisitRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	verifyRepo := repository.NewVerificationRepository(pool)
	redisStore := repository.NewRedisStore(redisClient)

	// Mailer
	var mail mailer.Mailer
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromAddress)
	}

	// Services
	clientService := service.NewClientService(clientRepo, visitRepo, eventBus)
	authService := service.NewAuthService(staffRepo, verifyRepo, mail, eventBus, cfg)

	h := handlers.New(clientService, authService, cfg)

	loginLimiter := mw.NewRateLimiter(redisStore, mw.RateLimitConfig{
		Requests: cfg.Auth.LoginRateLimit,
		Window:   cfg.Auth.LoginRateWindow,
		KeyFunc:  mw.IPKeyFunc,
	})

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("intake"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.With(loginLimiter.Middleware()).Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Get("/verify", h.VerifyEmail)
			r.With(h.RequireJWT("")).Get("/me", h.Me)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(h.RequireJWT("staff"))

			r.Get("/", h.SearchClients)
			r.Post("/", h.CreateClient)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", h.GetClient)
				r.Put("/", h.UpdateClient)
				r.Get("/profile", h.GetProfile)

				r.With(mw.IdempotencyMiddleware(redisStore, cfg.App.IdempotencyTTL)).
					Post("/checkin", h.CheckInClient)
				r.Post("/checkout", h.CheckOutClient)
				r.Post("/ban", h.BanClient)
				r.Post("/unban", h.UnbanClient)

				r.Get("/visits", h.ListVisits)
				r.Get("/visits/{visitId}", h.GetVisit)
				r.Get("/visits/{visitId}/view", h.GetVisitView)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down intake service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Intake service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting intake service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Intake service error", "error", err)
		os.Exit(1)
	}
}
