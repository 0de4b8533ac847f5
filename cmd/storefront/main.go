package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/health"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/config"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/fjod/go_cart/storefront/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const serviceName = "storefront"

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}

	kv, closeStorage, err := openStorage(ctx, cfg, redisClient)
	if err != nil {
		log.Fatal("failed to open cart storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()
	log.Info("cart storage ready", zap.String("backend", cfg.StorageBackend))

	cartStore := cart.NewStore(ctx, kv,
		cart.WithLogger(log.Named("cart")),
		cart.WithWriteTimeout(cfg.CartWriteTimeout),
	)

	var productCache catalog.ProductCache = catalog.NopCache{}
	if redisClient != nil {
		productCache = catalog.NewRedisCache(redisClient, cfg.ProductCacheTTL)
	}
	client := catalog.NewClient(cfg.ProductAPIBaseURL, catalog.WithBreaker(
		circuitbreaker.New[[]byte](circuitbreaker.Settings{
			Name:        "product-api",
			MaxFailures: uint32(cfg.BreakerMaxFailures),
			Timeout:     cfg.BreakerTimeout,
			Ignore:      func(err error) bool { return errors.Is(err, catalog.ErrProductNotFound) },
			Logger:      log,
		}),
	))
	products := catalog.NewService(client, productCache, log.Named("catalog"))

	var publisher checkout.Publisher = checkout.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := checkout.NewKafkaPublisher(cfg.CheckoutTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		publisher = kp
	}
	checkoutSvc := checkout.NewService(cartStore, publisher, log.Named("checkout"))

	var pinger storage.Pinger
	if p, ok := kv.(storage.Pinger); ok {
		pinger = p
	}
	checker := health.NewChecker(pinger, cfg.HealthInterval, log.Named("health"))

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(h.RouterConfig{
			Products:           products,
			Cart:               cartStore,
			Checkout:           checkoutSvc,
			Health:             checker,
			Logger:             log.Named("http"),
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer := grpc.NewServer()
	checker.Register(grpcServer)
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		log.Info("grpc health listening", zap.String("port", cfg.GRPCHealthPort))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		checker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down storefront")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront stopped with error", zap.Error(err))
		return
	}
	log.Info("storefront exited")
}

func openStorage(ctx context.Context, cfg config.Config, redisClient *redis.Client) (storage.Store, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), noop, nil

	case config.StorageRedis:
		if redisClient == nil {
			return nil, noop, errors.New("REDIS_ADDR is required for the redis backend")
		}
		return storage.NewRedisStore(redisClient, cfg.CartTTL), noop, nil

	case config.StorageMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, noop, err
		}
		s := storage.NewMongoStore(db)
		if err := s.CreateIndexes(ctx); err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil

	case config.StorageSQLite, config.StoragePostgres:
		dsn := cfg.SQLitePath
		if cfg.StorageBackend == config.StoragePostgres {
			dsn = cfg.PostgresDSN
		}
		s, err := storage.NewSQLStore(cfg.StorageBackend, dsn)
		if err != nil {
			return nil, noop, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
