package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"vextract/parse-gateway/internal/adapter"
	"vextract/parse-gateway/internal/cache"
	"vextract/parse-gateway/internal/client"
	"vextract/parse-gateway/internal/config"
	"vextract/parse-gateway/internal/database"
	"vextract/parse-gateway/internal/handler"
	"vextract/parse-gateway/internal/mq"
	"vextract/parse-gateway/internal/repository"
	"vextract/parse-gateway/internal/router"
	"vextract/parse-gateway/internal/service"
	"vextract/parse-gateway/internal/utils"
	"vextract/parse-gateway/internal/ws"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config/dev.yaml"), "config file path")
	skipDB := flag.Bool("skip-db", false, "run without PostgreSQL, using upstream.keys as the key pool")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *skipDB {
		cfg.Server.SkipDatabase = true
	}

	// 2. 初始化日志
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting parse gateway",
		zap.Int("port", cfg.Server.Port),
		zap.Int("grpc_port", cfg.Server.GRPCPort),
		zap.String("mode", cfg.Server.Mode),
	)

	ctx := context.Background()

	// 3. 连接 Redis
	redisClient := initRedis(ctx, &cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 4. 连接 PostgreSQL
	var db *sql.DB
	if !cfg.Server.SkipDatabase {
		if err := database.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.GetURL(), logger); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
		db, err = database.Open(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("✓ Connected to PostgreSQL")
	} else {
		logger.Warn("Database disabled, key and announcement management unavailable")
	}

	// 5. 连接 RabbitMQ
	events := ws.NewHub(logger)
	sinks := mq.Fanout{events}
	if cfg.RabbitMQ.URL != "" {
		mqPublisher, err := mq.NewPublisher(&cfg.RabbitMQ, logger)
		if err != nil {
			// 不退出，允许降级运行
			logger.Warn("Failed to connect to RabbitMQ, parse events disabled", zap.Error(err))
		} else {
			defer mqPublisher.Close()
			sinks = append(sinks, mqPublisher)
		}
	}

	// 6. 初始化服务
	deps := &router.Dependencies{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		RedisClient: redisClient,
		Events:      events,
	}

	var keys service.KeyProvider
	var users service.UserStore
	if db != nil {
		keyService := service.NewKeyService(repository.NewKeyRepository(db), logger)
		keys = keyService
		deps.Keys = keyService
		deps.Announcements = service.NewAnnouncementService(repository.NewAnnouncementRepository(db), logger)
		users = repository.NewUserRepository(db)
	} else {
		static := service.NewStaticKeyProvider(cfg.Upstream.Keys)
		logger.Info("Using static key pool", zap.Int("keys", static.Len()))
		keys = static
	}

	var resultCache service.ResultCache
	var revoker service.TokenRevoker
	var accessTokens client.AccessTokenCache
	if redisClient != nil {
		if cfg.Cache.Enabled {
			resultCache = cache.NewService(redisClient, cfg.Cache.TTL)
		}
		tokenStore := cache.NewTokenStore(redisClient)
		revoker = tokenStore
		accessTokens = tokenStore
	}

	upstream := adapter.NewRegistry(adapter.NewClient(adapter.Config{
		BaseURL:   cfg.Upstream.BaseURL,
		Timeout:   cfg.Upstream.Timeout,
		UserAgent: cfg.Upstream.UserAgent,
	}, nil, logger))

	parserService := service.NewParserService(service.ParserDeps{
		Upstream:      upstream,
		Keys:          keys,
		Cache:         resultCache,
		Publisher:     sinks,
		MaxConcurrent: cfg.Upstream.MaxConcurrent,
		Logger:        logger,
	})
	deps.Parser = parserService

	wechat := client.NewWeChatClient(&cfg.WeChat, nil, accessTokens, logger)
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	deps.Auth = service.NewAuthService(wechat, users, revoker, jwtUtil, logger)

	// 7. 启动 HTTP 服务
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router.SetupRouter(deps),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("✓ HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 8. 启动 gRPC 服务
	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			logger.Fatal("Failed to listen", zap.Error(err))
		}

		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(handler.UnaryLoggingInterceptor(logger)))
		handler.NewGRPCServer(parserService, logger).Register(grpcServer)

		go func() {
			logger.Info("✓ gRPC server listening", zap.Int("port", cfg.Server.GRPCPort))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Fatal("Failed to serve gRPC", zap.Error(err))
			}
		}()
	}

	// 9. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info("Server stopped")
}

// newLogger 按运行模式创建日志
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsDebug() {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Logging.Format != "" {
		zc.Encoding = cfg.Logging.Format
	}
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

// initRedis 初始化 Redis 连接, 未配置或不可用时返回 nil
func initRedis(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, cache disabled")
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, cache will be disabled", zap.Error(err))
		redisClient.Close()
		return nil
	}

	logger.Info("✓ Connected to Redis", zap.String("addr", cfg.Addr))
	return redisClient
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
