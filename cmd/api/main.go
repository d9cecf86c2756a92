package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-payments/internal/client"
	"creator-payments/internal/config"
	"creator-payments/internal/fee"
	"creator-payments/internal/idempotency"
	"creator-payments/internal/logger"
	"creator-payments/internal/payment"
	"creator-payments/internal/provider"
	"creator-payments/internal/repository"
	"creator-payments/internal/server"
	"creator-payments/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Environment.Name, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	db, err := client.InitDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}

	store, closeStore, err := newIdempotencyStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	feeOpts, err := fee.ParseOptions(cfg.Fees.CommissionBase, cfg.Fees.ProviderProfiles, cfg.Fees.PlatformRates)
	if err != nil {
		return fmt.Errorf("fee config: %w", err)
	}
	calculator := fee.NewCalculator(feeOpts...)

	registry, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}
	if err := service.VerifyFeeProfiles(calculator, registry.Enabled()); err != nil {
		return err
	}

	creatorRepo := repository.NewCreatorRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	dispatcher := service.NewDispatcher(registry, creatorRepo, service.MinimumsFromConfig(&cfg.Limits), log)
	executor := idempotency.NewExecutor[*service.OrderOutcome](store,
		idempotency.WithDispatchTimeout(cfg.Idempotency.DispatchTimeout),
		idempotency.WithClaimWait(cfg.Idempotency.ClaimWait, 0),
		idempotency.WithExecutorLogger(log),
	)
	paymentService := service.NewPaymentService(dispatcher, executor, calculator, registry, creatorRepo, orderRepo, log)

	creatorService := service.NewCreatorService(creatorRepo)

	srv := server.NewServer(paymentService, creatorService, log, server.Options{
		JWTSecret:  cfg.Auth.JWTSecret,
		DemoUserID: cfg.Auth.DemoUserID,
		RateLimit:  cfg.HTTP.RateLimit,
	})
	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set, every request runs as the demo user", zap.String("user_id", cfg.Auth.DemoUserID))
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server",
		zap.String("addr", serverAddr),
		zap.Any("providers", registry.Enabled()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigChan:
	}
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// newIdempotencyStore uses redis when configured so replicas share results.
func newIdempotencyStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (idempotency.Store, func(), error) {
	if cfg.Redis.URL == "" {
		log.Warn("REDIS_URL not set, idempotency is local to this process")
		mem := idempotency.NewMemoryStore(
			idempotency.WithTTL(cfg.Idempotency.TTL),
			idempotency.WithSweepInterval(cfg.Idempotency.SweepInterval),
			idempotency.WithLogger(log),
		)
		return mem, func() { _ = mem.Close() }, nil
	}

	rdb, err := client.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	store := idempotency.NewRedisStore(rdb,
		idempotency.WithRedisTTL(cfg.Idempotency.TTL),
		idempotency.WithClaimTTL(cfg.Idempotency.ClaimTTL),
	)
	return store, func() { _ = rdb.Close() }, nil
}

// newRegistry builds an adapter for every enabled provider. A provider whose
// credentials are missing stays disabled and is logged.
func newRegistry(cfg *config.Config, log *zap.Logger) (*provider.Registry, error) {
	var adapters []provider.Adapter
	for _, name := range cfg.EnabledProviders {
		p, err := payment.ParseProvider(name)
		if err != nil {
			return nil, fmt.Errorf("ENABLED_PROVIDERS: %w", err)
		}

		switch p {
		case payment.ProviderCardNetwork:
			if cfg.BrainTree.MerchantID == "" {
				log.Warn("braintree not configured, card payments disabled")
				continue
			}
			adapters = append(adapters, provider.NewCardAdapter(client.NewBraintreeClient(&cfg.BrainTree)))
		case payment.ProviderUPINetwork:
			if cfg.UPI.KeyID == "" {
				log.Warn("UPI keys not configured, UPI payments disabled")
				continue
			}
			adapters = append(adapters, provider.NewUPIAdapter(client.NewUPIClient(&cfg.UPI)))
		case payment.ProviderWalletA:
			pp, err := client.NewPaypalClient(&cfg.Paypal)
			if err != nil {
				log.Warn("paypal not configured, wallet A disabled", zap.Error(err))
				continue
			}
			adapters = append(adapters, provider.NewRedirectWalletAdapter(pp, cfg.BaseURL))
		case payment.ProviderWalletB:
			a, err := provider.NewFormWalletAdapter(&cfg.FormWallet, cfg.BaseURL)
			if err != nil {
				log.Warn("form wallet not configured, wallet B disabled", zap.Error(err))
				continue
			}
			adapters = append(adapters, a)
		case payment.ProviderBankTransfer:
			adapters = append(adapters, provider.NewBankTransferAdapter(&cfg.BankTransfer))
		}
	}

	enabled := make([]payment.Provider, len(adapters))
	for i, a := range adapters {
		enabled[i] = a.Provider()
	}
	registry := provider.NewRegistry(enabled)
	for _, a := range adapters {
		registry.Register(a)
	}
	return registry, nil
}
