package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-backend/internal/config"
	"storefront-backend/internal/db"
	"storefront-backend/internal/events"
	"storefront-backend/internal/httpserver"
	"storefront-backend/internal/idempotency"
	"storefront-backend/internal/metrics"
	"storefront-backend/internal/payment"
	orderrepo "storefront-backend/internal/repository/order"
	productrepo "storefront-backend/internal/repository/product"
	userrepo "storefront-backend/internal/repository/user"
	checkoutsvc "storefront-backend/internal/service/checkout"
	ordersvc "storefront-backend/internal/service/order"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool, logger)

	gateway := payment.NewGateway(
		cfg.GatewayBaseURL,
		cfg.GatewayMerchantID,
		cfg.GatewayPublicKey,
		cfg.GatewayPrivateKey,
		cfg.GatewayTimeout,
	)
	authorizer := payment.NewRetryingAuthorizer(gateway, cfg.PaymentMaxAttempts, cfg.PaymentRetryDelay, logger)

	checkoutMetrics := metrics.NewCheckoutMetrics()
	opts := []checkoutsvc.Option{checkoutsvc.WithMetrics(checkoutMetrics)}

	if cfg.KafkaBrokers != "" {
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		defer producer.Close()
		opts = append(opts, checkoutsvc.WithEventPublisher(producer))
	}
	if cfg.RedisAddr != "" {
		cache := idempotency.NewCache(cfg.RedisAddr, logger)
		defer cache.Close()
		opts = append(opts, checkoutsvc.WithIdempotencyCache(cache))
	}

	checkoutService := checkoutsvc.New(authorizer, orderRepo, productRepo, userRepo, logger, opts...)
	orderService := ordersvc.New(orderRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
		HistoryRepo: userRepo,
		JWTSecret:   cfg.JWTSecret,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
