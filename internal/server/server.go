package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"energynexus/internal/config"
	"energynexus/internal/database"
	"energynexus/internal/handlers"
	"energynexus/internal/middlewares"
	"energynexus/internal/ratelimit"
	"energynexus/internal/repositories"
	"energynexus/internal/services"
)

const totalUsersRefreshInterval = 30 * time.Second

type Server struct {
	cfg        *config.Config
	httpServer *http.Server

	db          database.Service
	health      handlers.HealthChecker
	redisClient *redis.Client
	userRepo    repositories.UserRepository

	authService      services.AuthService
	userService      services.UserService
	bootstrapService services.BootstrapService
	tokenService     services.TokenService
	notifier         services.NotificationService

	rateLimiter *middlewares.RateLimiter
	metrics     *middlewares.PrometheusMiddleware

	// sweepers are in-process OTP limiters that need idle entries pruned.
	sweepers []*ratelimit.MemoryLimiter

	background     context.Context
	stopBackground context.CancelFunc
}

// NewServer wires the store, delivery channels and services described by cfg.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:         cfg,
		rateLimiter: middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics:     middlewares.NewPrometheusMiddleware(),
	}
	s.background, s.stopBackground = context.WithCancel(context.Background())

	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("Using in-memory account store; data is lost on restart")
		s.userRepo = repositories.NewMemoryUserRepository()
		s.health = memoryStoreHealth{}
	default:
		db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.health = db
		s.userRepo = repositories.NewUserRepository(db.Database())
	}

	limiter, attempts := s.otpLimiters(ctx)

	tokens, err := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}
	s.tokenService = tokens

	fallback := services.LogSender{Development: cfg.IsDevelopment()}
	var sms services.SMSSender = fallback
	if cfg.SMS.GatewayURL != "" {
		sms = services.NewSMSService(cfg.SMS)
	}
	var email services.EmailSender = fallback
	if cfg.SMTP.Host != "" {
		email = services.NewEmailService(cfg.SMTP)
	}
	s.notifier = services.NewNotificationService(sms, email)

	passwords := services.NewPasswordService(cfg.Auth.BcryptCost)
	otps := services.NewOTPService(s.userRepo, limiter, attempts, cfg.OTP.TTL)

	s.authService = services.NewAuthService(s.userRepo, passwords, otps, tokens, s.notifier, cfg.Auth.PasswordMinLength)
	s.userService = services.NewUserService(s.userRepo, passwords, cfg.Auth.PasswordMinLength)
	s.bootstrapService = services.NewBootstrapService(s.userRepo, passwords, cfg.Auth.PasswordMinLength)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Bootstrap prepares the store and provisions seed accounts. It runs once
// before Start.
func (s *Server) Bootstrap(ctx context.Context) error {
	if err := s.userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	seeds, err := config.LoadSeedAccounts(s.cfg.SeedAccountsFile)
	if err != nil {
		return err
	}
	created, err := s.bootstrapService.EnsureSeeded(ctx, seeds)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	log.Info().Int("seeds", len(seeds)).Int("created", created).Msg("Account bootstrap complete")
	return nil
}

// otpLimiters returns the limiter for issuing codes and the one for verifying
// them. Both use Redis when REDIS_URL answers and process memory otherwise.
func (s *Server) otpLimiters(ctx context.Context) (issue, verify ratelimit.OTPLimiter) {
	cfg := s.cfg.OTP
	if s.cfg.Redis.URL != "" {
		client, err := ratelimit.NewRedisClient(ctx, s.cfg.Redis.URL)
		if err == nil {
			s.redisClient = client
			return ratelimit.NewRedisLimiter(client, cfg.ResendCooldown, cfg.Window, cfg.MaxPerWindow),
				ratelimit.NewRedisLimiter(client, 0, cfg.TTL, cfg.MaxVerifyAttempts)
		}
		log.Error().Err(err).Msg("Redis unavailable, OTP limits are enforced per process")
	}
	issueLimiter := ratelimit.NewMemoryLimiter(cfg.ResendCooldown, cfg.Window, cfg.MaxPerWindow)
	verifyLimiter := ratelimit.NewMemoryLimiter(0, cfg.TTL, cfg.MaxVerifyAttempts)
	s.sweepers = append(s.sweepers, issueLimiter, verifyLimiter)
	return issueLimiter, verifyLimiter
}

func (s *Server) Start() error {
	ctx := s.background
	go s.rateLimiter.CleanupVisitors(ctx)
	go s.userService.TrackTotalUsers(ctx, totalUsersRefreshInterval)
	for _, l := range s.sweepers {
		go l.Run(ctx, time.Minute)
	}

	log.Info().Int("port", s.cfg.Port).Str("store", s.cfg.StoreDriver).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(ctx)

	log.Info().Msg("Server exiting")
	done <- true
}

// Shutdown stops accepting requests, waits for in-flight OTP deliveries and
// releases the store connections.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}
	s.stopBackground()

	s.notifier.Wait()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
		}
	}
	if s.db != nil {
		if err := s.db.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}
}

type memoryStoreHealth struct{}

func (memoryStoreHealth) Health() map[string]string {
	return map[string]string{
		"status":  "ok",
		"message": "in-memory store",
	}
}
