package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/shinagawa-clinic/reservation-api/internal/config"
	"github.com/shinagawa-clinic/reservation-api/internal/email"
	healthHandler "github.com/shinagawa-clinic/reservation-api/internal/handler/health"
	publicHandler "github.com/shinagawa-clinic/reservation-api/internal/handler/public"
	staffHandler "github.com/shinagawa-clinic/reservation-api/internal/handler/staff"
	"github.com/shinagawa-clinic/reservation-api/internal/middleware"
	"github.com/shinagawa-clinic/reservation-api/internal/repository/store"
	"github.com/shinagawa-clinic/reservation-api/internal/router"
	authService "github.com/shinagawa-clinic/reservation-api/internal/service/auth"
	notificationService "github.com/shinagawa-clinic/reservation-api/internal/service/notification"
	reservationService "github.com/shinagawa-clinic/reservation-api/internal/service/reservation"
	"github.com/shinagawa-clinic/reservation-api/pkg/logger"
	"github.com/shinagawa-clinic/reservation-api/pkg/security"
	"github.com/shinagawa-clinic/reservation-api/pkg/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    !cfg.IsProduction(),
	})

	db, err := store.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	reservationRepo := store.NewReservationRepository(db)
	staffRepo := store.NewStaffUserRepository(db)

	codec := token.NewCodec(cfg.SecretKey)

	var sender email.Sender
	if cfg.Mail.SuppressSend {
		sender = email.NewSuppressedSender(appLogger)
	} else {
		sender = email.NewSMTPSender(cfg.Mail, appLogger)
	}

	notificationSvc := notificationService.NewService(sender, codec, cfg.BaseURL, cfg.MagicLinkInterval, appLogger)
	reservationSvc := reservationService.NewService(reservationRepo, notificationSvc)
	authSvc := authService.NewService(staffRepo, security.NewBcryptHasher(12), codec, cfg.SessionTTL)

	authMW := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		publicHandler.NewHandler(reservationSvc, notificationSvc, codec),
		staffHandler.NewHandler(authSvc, reservationSvc, cfg.IsProduction()),
		healthHandler.NewHandler(db),
		authMW,
		router.Config{
			Production:     cfg.IsProduction(),
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        r.Engine(),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "forced shutdown")
	}
}
