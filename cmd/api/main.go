package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mediconnect/internal/config"
	"mediconnect/internal/db"
	"mediconnect/internal/email"
	"mediconnect/internal/events"
	apihttp "mediconnect/internal/http"
	"mediconnect/internal/logger"
	"mediconnect/internal/metrics"
	"mediconnect/internal/oauth"
	"mediconnect/internal/repository"
	"mediconnect/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("db schema", zap.Error(err))
	}

	patientRepo := repository.NewPgPatientRepository(pool)
	labTestRepo := repository.NewPgLabTestRepository(pool)
	bookingRepo := repository.NewPgBookingRepository(pool)

	var (
		sessions service.SessionStore
		states   service.StateStore
		limiter  service.AuthRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			zl.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			sessions = service.NewRedisSessionStore(redisClient)
			states = service.NewRedisStateStore(redisClient, service.OAuthStateTTL)
			limiter = service.NewRedisAuthRateLimiter(redisClient, time.Minute, cfg.AuthRateLimit)
			defer redisClient.Close()
		}
		cancel()
	}
	if sessions == nil {
		sessions = service.NewMemorySessionStore()
		states = service.NewMemoryStateStore(service.OAuthStateTTL)
		limiter = service.NewMemoryAuthRateLimiter(time.Minute, cfg.AuthRateLimit)
	}

	collector := metrics.NewCollector("mediconnect")

	var publisher events.Publisher = events.NewNopPublisher()
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, zl)
		if err != nil {
			zl.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			zl.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var provider oauth.Provider
	if cfg.GoogleEnabled() {
		provider = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	} else {
		zl.Info("google oauth not configured")
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	patientSvc := service.NewPatientService(zl, patientRepo, tokens, service.PatientServiceOptions{
		BcryptCost:  cfg.BcryptCost,
		MaxAttempts: cfg.LockoutMaxAttempts,
		LockFor:     cfg.LockoutDuration,
		Recorder:    collector,
	})
	labTestSvc := service.NewLabTestService(zl, labTestRepo)
	bookingSvc := service.NewBookingService(zl, bookingRepo, labTestSvc, publisher, collector)
	reportSvc := service.NewReportService(zl, bookingSvc, patientSvc, emailSender, collector)

	router := apihttp.NewRouter(zl, apihttp.RouterDeps{
		Patients: apihttp.NewPatientHandler(zl, patientSvc),
		Auth: apihttp.NewAuthHandler(zl, patientSvc, provider, states, sessions, apihttp.AuthHandlerConfig{
			ClientURL:    cfg.ClientURL,
			SessionTTL:   cfg.SessionTTL,
			SecureCookie: cfg.SessionCookieSecure,
		}),
		Bookings:    apihttp.NewBookingHandler(zl, bookingSvc, reportSvc),
		Tests:       apihttp.NewLabTestHandler(zl, labTestSvc),
		System:      apihttp.NewSystemHandler(zl, pool),
		Gate:        apihttp.NewAuthGate(zl, patientSvc, sessions),
		RateLimiter: limiter,
		Metrics:     collector,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
