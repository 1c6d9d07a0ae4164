package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/infra/db/postgres"
	"image-edit-saas/internal/infra/imageedit"
	"image-edit-saas/internal/infra/logging"
	"image-edit-saas/internal/infra/mail"
	"image-edit-saas/internal/infra/metrics"
	"image-edit-saas/internal/infra/payment"
	redisinfra "image-edit-saas/internal/infra/redis"
	"image-edit-saas/internal/infra/storage"
	"image-edit-saas/internal/infra/web"
	"image-edit-saas/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dev := flag.Bool("dev", false, "developer mode (console logs)")
	flag.Parse()

	// Best effort; secrets usually come from the real environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redisinfra.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	userRepo := postgres.NewPostgresUserRepo(pool)
	roleRepo := postgres.NewPostgresRoleRepo(pool)
	planRepo := postgres.NewPostgresPlanRepo(pool)
	paymentRepo := postgres.NewPostgresPaymentRepo(pool)
	mediaRepo := postgres.NewPostgresMediaRepo(pool)
	presetRepo := postgres.NewPostgresPresetRepo(pool)
	txManager := postgres.NewTxManager(pool)

	// Built-in roles must exist before anything resolves them.
	if err := roleRepo.EnsureDefaults(ctx, nil); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	objectStorage, err := storage.NewS3Storage(ctx, &cfg.Storage, *log)
	if err != nil {
		return err
	}
	gateway := payment.NewNOWPaymentsGateway(&cfg.NOWPayments, *log)
	editor := imageedit.NewModelsLabAdapter(&cfg.ImageEdit, *log)
	mailer := mail.NewSMTPMailer(&cfg.SMTP, *log)
	limiter := redisinfra.NewRateLimiter(redisClient)

	userUC := usecase.NewUserUseCase(userRepo, roleRepo, mailer, limiter, cfg.OTP, *log)
	planUC := usecase.NewPlanUseCase(planRepo, *log)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, userRepo, planRepo, gateway, txManager,
		cfg.Server.BaseURL, cfg.Server.FrontendURL, *log)
	mediaUC := usecase.NewMediaUseCase(mediaRepo, presetRepo, objectStorage, editor, cfg.Server.BaseURL, *log)
	presetUC := usecase.NewPresetUseCase(presetRepo, *log)

	server, err := web.NewServer(ctx, cfg, userRepo, roleRepo,
		userUC, planUC, paymentUC, mediaUC, presetUC, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
