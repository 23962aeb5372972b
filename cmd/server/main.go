package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	natsclient "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	identityhttp "github.com/codecrunchr/credentials/internal/adapter/inbound/http"
	natsadapter "github.com/codecrunchr/credentials/internal/adapter/outbound/nats"
	"github.com/codecrunchr/credentials/internal/adapter/outbound/postgres"
	rediscache "github.com/codecrunchr/credentials/internal/adapter/outbound/redis"
	"github.com/codecrunchr/credentials/internal/app/command"
	"github.com/codecrunchr/credentials/internal/app/query"
	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/cache"
	"github.com/codecrunchr/credentials/internal/config"
	"github.com/codecrunchr/credentials/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting credential service",
		zap.String("address", cfg.Server.Address()),
	)

	// Connect to PostgreSQL
	pool, err := connectPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	// Connect to Redis
	redisClient, err := connectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// Connect to NATS
	natsConn, err := connectNATS(cfg.NATS, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	defer natsConn.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	credentialRepo := postgres.NewCredentialRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	unitOfWork := postgres.NewUnitOfWork(pool)

	// Initialize caches
	identityCache := cache.New[string, model.SessionIdentity]()
	tokenPairCache := cache.New[string, model.TokenPair]()
	tokenPairCache.StartSweeper(ctx, cfg.Cache.SweepInterval)
	tokenBlacklist := rediscache.NewTokenBlacklist(redisClient)

	// Initialize event publisher
	eventPublisher := natsadapter.NewEventPublisher(natsConn, cfg.NATS.SubjectPrefix)

	// Initialize services
	tokenService, err := service.NewTokenService(service.TokenConfig{
		Issuer:          cfg.Token.Issuer,
		SessionDuration: cfg.Token.SessionDuration,
		SigningKey:      []byte(cfg.Token.SigningKey),
	})
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	encryptionKey, err := base64.StdEncoding.DecodeString(cfg.Crypto.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decode encryption key: %w", err)
	}
	cryptoService, err := service.NewCryptoService(encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to create crypto service: %w", err)
	}

	wakatimeClient := service.NewWakatimeClient(service.WakatimeConfig{
		ClientID:     cfg.Wakatime.ClientID,
		ClientSecret: cfg.Wakatime.ClientSecret,
		RedirectURI:  cfg.Wakatime.RedirectURI,
		BaseURL:      cfg.Wakatime.BaseURL,
		APIBaseURL:   cfg.Wakatime.APIBaseURL,
	})

	// Initialize command handlers
	loginHandler := command.NewLoginWithCodeHandler(
		unitOfWork,
		wakatimeClient,
		cryptoService,
		tokenService,
		eventPublisher,
		logger,
	)
	revokeHandler := command.NewRevokeTokenHandler(
		identityCache,
		tokenPairCache,
		tokenBlacklist,
		tokenService,
		credentialRepo,
		cryptoService,
		wakatimeClient,
		eventPublisher,
		logger,
	)

	// Initialize query handlers
	providerTokensHandler := query.NewGetProviderTokensHandler(
		identityCache,
		tokenPairCache,
		tokenBlacklist,
		tokenService,
		credentialRepo,
		cryptoService,
		wakatimeClient,
		eventPublisher,
		cfg.Cache.EarlyExpiry,
		logger,
	)
	currentUserHandler := query.NewGetCurrentUserHandler(
		identityCache,
		tokenBlacklist,
		tokenService,
	)
	userProfileHandler := query.NewGetUserProfileHandler(
		providerTokensHandler,
		userRepo,
		profileRepo,
		wakatimeClient,
		eventPublisher,
		cfg.Cache.ProfileMaxAge,
		logger,
	)

	// Initialize HTTP server
	handler := identityhttp.NewHandler(
		loginHandler,
		revokeHandler,
		providerTokensHandler,
		currentUserHandler,
		userProfileHandler,
	)
	server := identityhttp.NewServer(cfg.Server.Address(), handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to redis")
	return client, nil
}

func connectNATS(cfg config.NATSConfig, logger *zap.Logger) (*natsclient.Conn, error) {
	conn, err := natsclient.Connect(cfg.URL,
		natsclient.MaxReconnects(cfg.MaxReconnects),
		natsclient.ReconnectWait(cfg.ReconnectWait),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to nats")
	return conn, nil
}
