package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/shop-bridge/internal/adapter/handler"
	"github.com/rl1809/shop-bridge/internal/adapter/storage"
	"github.com/rl1809/shop-bridge/internal/config"
	"github.com/rl1809/shop-bridge/internal/core/service"
	"github.com/rl1809/shop-bridge/internal/logging"
	"github.com/rl1809/shop-bridge/internal/port"
)

const serviceName = "shop-bridge"

// backend is a repository together with its liveness probe and cleanup.
type backend struct {
	repo  port.InventoryRepository
	ping  func(ctx context.Context) error
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)

	logger.Info("starting", cfg.LogFields()...)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		logging.Sync(logger)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Initialize storage
	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// Initialize Redis
	var idempotency port.IdempotencyStore
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		idempotency = storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	readiness := func(ctx context.Context) error {
		if err := store.ping(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}

	// Initialize service
	inventoryService := service.NewInventoryService(store.repo, idempotency, logger.Named("service"))

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogging(logger.Named("grpc"))))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	handler.RegisterInventoryServer(grpcServer, handler.NewGRPCHandler(inventoryService, logger.Named("grpc")))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(inventoryService, readiness, logger.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(handler.InventoryServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
		logger.Warn("gRPC graceful stop timed out, forced stop")
	}
	logger.Info("gRPC server stopped")

	return nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	switch cfg.StorageDriver {
	case config.StorageMySQL:
		return openMySQL(ctx, cfg, logger)
	case config.StoragePostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := storage.NewMemoryAdapter()
		return &backend{repo: mem, ping: mem.Ping, close: func() {}}, nil
	}
}

func openMySQL(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	logger.Info("connected to mysql")

	if cfg.RunMigrations {
		if err := storage.Migrate(ctx, db, storage.DialectMySQL); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("mysql migrations applied")
	}

	adapter := storage.NewMySQLAdapter(db)
	return &backend{
		repo:  adapter,
		ping:  adapter.Ping,
		close: func() { db.Close() },
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxOpenConns)
	poolCfg.MaxConnLifetime = cfg.DBConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")

	if cfg.RunMigrations {
		db := stdlib.OpenDBFromPool(pool)
		err := storage.Migrate(ctx, db, storage.DialectPostgres)
		db.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("postgres migrations applied")
	}

	adapter := storage.NewPostgresAdapter(pool)
	return &backend{
		repo:  adapter,
		ping:  adapter.Ping,
		close: pool.Close,
	}, nil
}
