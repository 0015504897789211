package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zaibaki/auth-backend/internal/config"
	"github.com/zaibaki/auth-backend/internal/db"
	"github.com/zaibaki/auth-backend/internal/email"
	apihttp "github.com/zaibaki/auth-backend/internal/http"
	"github.com/zaibaki/auth-backend/internal/repository"
	"github.com/zaibaki/auth-backend/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		// Secreto de firma o DSN ausente: abortar el arranque, no hay modo degradado.
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	roleRepo := repository.NewPgRoleRepository(pool)
	tokenRepo := repository.NewPgVerificationTokenRepository(pool)

	if err := roleRepo.EnsureDefaults(ctx); err != nil {
		logger.Fatal("seed roles", zap.Error(err))
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS, cfg.AppBaseURL)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var resendLimiter service.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resendLimiter = service.NewRedisResendLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	jwtSvc, err := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLHours)*time.Hour,
		time.Duration(cfg.JWTRefreshTTLHours)*time.Hour,
		time.Duration(cfg.JWTLeewaySeconds)*time.Second,
	)
	if err != nil {
		logger.Fatal("jwt init", zap.Error(err))
	}

	verificationSvc := service.NewVerificationService(tokenRepo, userRepo, time.Duration(cfg.VerificationTTLHours)*time.Hour)
	resolver := service.NewIdentityResolver(userRepo)
	authSvc := service.NewAuthService(logger, userRepo, jwtSvc, verificationSvc, resolver, emailSender, resendLimiter)
	userSvc := service.NewUserService(logger, userRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userSvc, authHandler, userHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
