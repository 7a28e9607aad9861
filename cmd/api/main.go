package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	collectionrepo "storefront/internal/repository/collection"
	contentrepo "storefront/internal/repository/content"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	shoprepo "storefront/internal/repository/shop"
	tokenrepo "storefront/internal/repository/token"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	collectionsvc "storefront/internal/service/collection"
	contentsvc "storefront/internal/service/content"
	customersvc "storefront/internal/service/customer"
	productsvc "storefront/internal/service/product"
	searchsvc "storefront/internal/service/search"
)

const pruneInterval = 10 * time.Minute

func main() {
	cfg := config.Load()
	logger, err := logging.New("api", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.WithMaxConns(int32(cfg.DBMaxConns)))
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	shopRepo := shoprepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	collectionRepo := collectionrepo.NewPostgres(dbpool, logger)
	contentRepo := contentrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool, logger)

	deps := httpserver.Deps{
		ShopRepo:       shopRepo,
		ProductSvc:     productsvc.New(productRepo),
		CollectionSvc:  collectionsvc.New(collectionRepo),
		ContentSvc:     contentsvc.New(contentRepo),
		CartSvc:        cartsvc.New(cartRepo, productRepo, cfg.CheckoutBaseURL, logger),
		FileURLHost:    cfg.FileURLHost,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}

	var resultCache searchsvc.ResultCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		predictiveCache := cache.NewPredictive(client, cfg.PredictiveCacheTTL)
		if err := predictiveCache.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, predictive results will not be cached until it is", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		resultCache = predictiveCache
		deps.Cache = predictiveCache
	} else {
		logger.Info("REDIS_ADDR not set, predictive cache disabled")
	}
	deps.SearchSvc = searchsvc.New(productRepo, collectionRepo, contentRepo, resultCache, cfg.PredictiveLimit, logger)

	customerService := customersvc.New(customerRepo, tokenRepo, orderRepo, logger)
	anonymousService := anonymoussvc.New()
	deps.CustomerSvc = customerService
	deps.AnonymousSvc = anonymousService

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	go pruneTokens(ctx, logger, customerService, anonymousService)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// pruneTokens periodically drops expired customer and visitor tokens.
func pruneTokens(ctx context.Context, logger *zap.Logger, customers *customersvc.Service, visitors *anonymoussvc.Service) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := customers.PruneTokens(ctx)
			if err != nil {
				logger.Warn("prune customer tokens", zap.Error(err))
			}
			logger.Debug("tokens pruned", zap.Int64("customer", removed), zap.Int("visitor", visitors.Prune()))
		}
	}
}
