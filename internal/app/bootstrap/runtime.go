package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m15 campaign funding service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage_driver", cfg.StorageDriver,
	)

	cleanups := []func(context.Context){}
	cleanup := func(ctx context.Context) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](ctx)
		}
	}

	var (
		campaigns     ports.CampaignRepository
		contributions ports.ContributionRepository
		fees          ports.FeeLedgerRepository
		idempotency   ports.IdempotencyRepository
		outboxRepo    ports.OutboxRepository
	)
	switch cfg.StorageDriver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := pool.DB()
		if err != nil {
			return nil, fmt.Errorf("gorm sql db: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) { _ = sqlDB.Close() })
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := postgres.NewRepositories(pool)
		campaigns = repos.Campaigns
		contributions = repos.Contributions
		fees = repos.Fees
		idempotency = repos.Idempotency
		outboxRepo = repos.Outbox
	default:
		repos := memory.NewRepositories()
		campaigns = repos.Campaigns
		contributions = repos.Contributions
		fees = repos.Fees
		idempotency = repos.Idempotency
		outboxRepo = repos.Outbox
	}

	var locks ports.ReentrancyLocker = memory.NewCampaignLocker()
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) { _ = redisClient.Close() })
		locks = cacheadapter.NewRedisCampaignLocker(redisClient, cfg.LockTTL)
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			domain.EventCampaignCreated:   "funding.campaign-lifecycle",
			domain.EventContributionMade:  "funding.campaign-lifecycle",
			domain.EventCampaignCancelled: "funding.campaign-lifecycle",
			domain.EventFundsWithdrawn:    "funding.settlements",
			domain.EventRefundClaimed:     "funding.settlements",
		})
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		cleanups = append(cleanups, func(context.Context) { _ = kafkaPublisher.Close() })
		publisher = kafkaPublisher
	}

	// Settlement stays in-process: campaign custody is an internal account
	// ledger, and payout rails sit behind M13 rather than this service.
	transfers := memory.NewSettlementGateway()

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:          cfg.ServiceID,
			FeeRecipient:         cfg.FeeRecipient,
			IdempotencyTTL:       cfg.IdempotencyTTL,
			OutboxFlushBatchSize: cfg.OutboxBatchSize,
		},
		Campaigns:     campaigns,
		Contributions: contributions,
		Fees:          fees,
		Idempotency:   idempotency,
		Outbox:        outboxRepo,
		Transfers:     transfers,
		Locks:         locks,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewCampaignQueryServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		outboxRepo,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		cleanupFn:  cleanup,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started", "poll_interval", r.cfg.OutboxPollInterval.String())
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
