// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"planvault/internal/config"
	"planvault/internal/domain/ports/adapter"
	"planvault/internal/infra/auth"
	"planvault/internal/infra/clock"
	pg "planvault/internal/infra/db/postgres"
	"planvault/internal/infra/logging"
	"planvault/internal/infra/metrics"
	red "planvault/internal/infra/redis"
	"planvault/internal/infra/sched"
	"planvault/internal/infra/token"
	"planvault/internal/infra/web"
	"planvault/internal/infra/worker"
	"planvault/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (static auth, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("postgres schema")
	}

	// ---- Redis (event sink) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer redisClient.Close()
	events := red.NewEventPublisher(redisClient, cfg.Redis.EventChannel)

	// ---- Repositories ----
	settingsRepo := pg.NewSettingsRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	voucherRepo := pg.NewVoucherRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Collaborators ----
	ledger := token.NewHTTPLedger(cfg.Token.BaseURL, cfg.Token.APIKey, cfg.Token.Timeout)
	sysClock := clock.NewSystem()
	var authProvider adapter.AuthProvider
	if cfg.Runtime.Dev && len(cfg.Auth.DevPrincipals) > 0 {
		logger.Warn().Msg("dev mode: static auth provider in use")
		authProvider = auth.NewStaticProvider(cfg.Auth.DevPrincipals)
	} else {
		authProvider = auth.NewJWTProvider(cfg.Auth.HMACSecret)
	}

	// ---- Use cases ----
	escrowUC := usecase.NewEscrowUseCase(settingsRepo, paymentRepo, ledger, authProvider, sysClock, events, tm, cfg.Escrow.Account, logger)
	voucherUC := usecase.NewVoucherUseCase(settingsRepo, voucherRepo, authProvider, sysClock, events, tm, logger)

	// ---- Background workers ----
	pool2 := worker.NewPool(1, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	sweep := sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, voucherRepo, sysClock, logger)
	if err := pool2.Submit(sweep.Run); err != nil {
		logger.Error().Err(err).Msg("submit expiry sweep")
	}

	// ---- HTTP ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           web.NewServer(escrowUC, voucherUC, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
