package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/kolobank/walletcore/internal/adapter/http"
	"github.com/kolobank/walletcore/internal/adapter/http/handler"
	"github.com/kolobank/walletcore/internal/adapter/provider"
	postgresRepo "github.com/kolobank/walletcore/internal/adapter/repository/postgres"
	redisRepo "github.com/kolobank/walletcore/internal/adapter/repository/redis"
	"github.com/kolobank/walletcore/internal/infrastructure/config"
	"github.com/kolobank/walletcore/internal/infrastructure/logger"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
	"github.com/kolobank/walletcore/internal/infrastructure/postgres"
	"github.com/kolobank/walletcore/internal/infrastructure/redis"
	"github.com/kolobank/walletcore/internal/infrastructure/signature"
	"github.com/kolobank/walletcore/internal/usecase"
	"github.com/kolobank/walletcore/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	feeConfigRepo := postgresRepo.NewFeeConfigRepository(pool)
	linkRepo := postgresRepo.NewPaymentLinkRepository(pool)
	contribRepo := postgresRepo.NewContributionRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	goalRepo := postgresRepo.NewGoalRepository(pool)
	webhookRepo := postgresRepo.NewWebhookEventRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	verifier := signature.NewVerifier(cfg.WebhookSecrets, cfg.WebhookStrategies)

	rail := provider.NewClient(provider.Config{
		BaseURL: cfg.ProviderBaseURL,
		APIKey:  cfg.ProviderAPIKey,
		Timeout: cfg.ProviderTimeout,
		Logger:  log,
		Metrics: m,
	})

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, walletRepo, entryRepo, idGen, cfg.PlatformWalletID, m).
		WithRetrier(postgresRepo.NewRetrier(log, m))
	feeConfigUC := usecase.NewFeeConfigUseCase(txManager, feeConfigRepo, cache, idGen)
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, entryRepo, outboxRepo, idGen)
	matcherUC := usecase.NewMatcherUseCase(
		txManager, linkRepo, contribRepo, goalRepo, outboxRepo,
		ledgerUC, feeConfigUC, idGen, cfg.MatchWindow, log, m)
	depositUC := usecase.NewDepositUseCase(usecase.DepositUseCaseConfig{
		TxManager:   txManager,
		WalletRepo:  walletRepo,
		EntryRepo:   entryRepo,
		WebhookRepo: webhookRepo,
		OutboxRepo:  outboxRepo,
		Ledger:      ledgerUC,
		Matcher:     matcherUC,
		FeeConfig:   feeConfigUC,
		Verifier:    verifier,
		VerifyMode:  usecase.VerifyMode(cfg.WebhookVerifyMode),
		IDGen:       idGen,
		Logger:      log,
		Metrics:     m,
	})
	withdrawalUC := usecase.NewWithdrawalUseCase(usecase.WithdrawalUseCaseConfig{
		TxManager:      txManager,
		WalletRepo:     walletRepo,
		EntryRepo:      entryRepo,
		WithdrawalRepo: withdrawalRepo,
		OutboxRepo:     outboxRepo,
		Ledger:         ledgerUC,
		FeeConfig:      feeConfigUC,
		Rail:           rail,
		IDGen:          idGen,
		CallbackURL:    cfg.CallbackURL,
		Logger:         log,
		Metrics:        m,
	})
	reconciliationUC := usecase.NewReconciliationUseCase(usecase.ReconciliationUseCaseConfig{
		WalletRepo:  walletRepo,
		EntryRepo:   entryRepo,
		Deposits:    depositUC,
		Withdrawals: withdrawalUC,
		FeeConfig:   feeConfigUC,
		Ledger:      ledgerUC,
		Rail:        rail,
		StuckAge:    cfg.StuckWithdrawalAge,
		Logger:      log,
		Metrics:     m,
	})
	paymentLinkUC := usecase.NewPaymentLinkUseCase(linkRepo, contribRepo, walletRepo, goalRepo, idGen)

	// Background workers
	drainer := worker.NewOutboxDrainer(worker.OutboxDrainerConfig{
		OutboxRepo: outboxRepo,
		Notifier:   worker.NewLogNotifier(log),
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	poller := worker.NewWithdrawalPoller(worker.WithdrawalPollerConfig{
		Resolver: withdrawalUC,
		Logger:   log,
		Interval: cfg.WithdrawalPollInterval,
		MaxAge:   cfg.WithdrawalPollAge,
	})
	reconciler := worker.NewReconciler(worker.ReconcilerConfig{
		Runner:   reconciliationUC,
		Logger:   log,
		Interval: cfg.AuditInterval,
	})

	go func() { _ = drainer.Start(ctx) }()
	go func() { _ = poller.Start(ctx) }()
	go func() { _ = reconciler.Start(ctx) }()

	// HTTP
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         handler.NewWalletHandler(walletUC),
		WithdrawalHandler:     handler.NewWithdrawalHandler(withdrawalUC),
		PaymentLinkHandler:    handler.NewPaymentLinkHandler(paymentLinkUC),
		FeeConfigHandler:      handler.NewFeeConfigHandler(feeConfigUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		WebhookHandler: handler.NewWebhookHandler(handler.WebhookHandlerConfig{
			Deposits:  depositUC,
			Transfers: withdrawalUC,
			Verifier:  verifier,
			Enforce:   cfg.WebhookVerifyMode != string(usecase.VerifyModeLog),
			Logger:    log,
		}),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		Logger:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
