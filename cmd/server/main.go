package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/tradesense-backend/internal/adapter/grpc"
	"github.com/simaogato/tradesense-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/tradesense-backend/internal/config"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"github.com/simaogato/tradesense-backend/internal/logger"
	"github.com/simaogato/tradesense-backend/internal/metrics"
	"github.com/simaogato/tradesense-backend/internal/scheduler"
	"github.com/simaogato/tradesense-backend/internal/usecase/challenge"
	"github.com/simaogato/tradesense-backend/internal/usecase/currency"
	"github.com/simaogato/tradesense-backend/internal/usecase/dashboard"
	"github.com/simaogato/tradesense-backend/internal/usecase/evaluation"
	"github.com/simaogato/tradesense-backend/internal/usecase/leaderboard"
	"github.com/simaogato/tradesense-backend/internal/usecase/performance"
	"github.com/simaogato/tradesense-backend/internal/usecase/seeder"
)

const (
	serviceName     = "tradesense"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	sweepTimeout    = time.Minute
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(serviceName, cfg.LogLevel, cfg.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// 2. Setup Database
	db, err := connectWithRetry(ctx, cfg.DBConnStr, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	// 3. Initialize Repositories (Postgres)
	planRepo := postgres.NewPlanRepository(db)
	challengeRepo := postgres.NewChallengeRepository(db)

	if cfg.SeedPlans {
		created, err := seeder.NewPlanSeeder(planRepo, log).Seed(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed plans: %w", err)
		}
		log.Info("plans seeded", zap.Int("created", created))
	}

	// 4. Initialize Services (Use Cases)
	converter := currency.NewConverter(domain.DefaultCurrencyTable())
	performanceService := performance.NewPerformanceService(challengeRepo, planRepo, performance.NewCalculator(), log)
	evaluationService := evaluation.NewEvaluationService(challengeRepo, planRepo, log)
	challengeService := challenge.NewChallengeService(challengeRepo, planRepo, log)
	leaderboardService := leaderboard.NewLeaderboardService(challengeRepo, log)
	dashboardService := dashboard.NewDashboardService(challengeRepo, planRepo)

	// 5. Start gRPC Server
	serviceMetrics := metrics.New(prometheus.DefaultRegisterer)
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			serviceMetrics.UnaryInterceptor(),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(
		performanceService,
		evaluationService,
		challengeService,
		leaderboardService,
		dashboardService,
		planRepo,
		converter,
		cfg.DefaultCurrency,
		log,
	)
	grpcadapter.RegisterChallengeServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ChallengeServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	// 6. Scheduled evaluation sweep
	sched := scheduler.New(log, serviceMetrics)
	if cfg.EvaluationSchedule != "" {
		job := scheduler.NewEvaluationJob(evaluationService, sweepTimeout, serviceMetrics, log)
		if err := sched.AddJob(cfg.EvaluationSchedule, job); err != nil {
			return fmt.Errorf("invalid EVALUATION_SCHEDULE %q: %w", cfg.EvaluationSchedule, err)
		}
		// catch up on rollovers missed while the service was down
		if err := sched.RunNow(job); err != nil {
			log.Warn("startup evaluation sweep incomplete", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr(), err)
	}

	var serving atomic.Bool
	serveErr := make(chan error, 2)
	go func() {
		log.Info("gRPC server listening",
			zap.String("addr", cfg.ListenAddr()),
			zap.String("default_currency", string(cfg.DefaultCurrency)))
		serving.Store(true)
		serveErr <- fmt.Errorf("failed to serve gRPC server: %w", grpcServer.Serve(lis))
	}()

	// 7. Ops HTTP server (health, readiness, metrics)
	opsServer := metrics.NewServer(cfg.MetricsAddr(), metrics.NewRouter(prometheus.DefaultGatherer, serving.Load, log))
	go func() {
		log.Info("ops HTTP server listening", zap.String("addr", cfg.MetricsAddr()))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("failed to serve ops HTTP server: %w", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serveErr:
		grpcServer.Stop()
		return err
	case sig := <-sigChan:
		log.Info("shutting down gracefully", zap.Stringer("signal", sig))
	}

	serving.Store(false)
	healthServer.Shutdown()
	stopGracefully(grpcServer, log)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("ops HTTP server forced to shutdown", zap.Error(err))
	}
	return nil
}

// connectWithRetry waits for Postgres to accept connections until ctx expires
func connectWithRetry(ctx context.Context, connStr string, log *zap.Logger) (*postgres.DB, error) {
	for attempt := 1; ; attempt++ {
		db, err := postgres.NewDB(ctx, connStr)
		if err == nil {
			return db, nil
		}

		log.Warn("database not ready", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		case <-time.After(2 * time.Second):
		}
	}
}

// stopGracefully drains in-flight RPCs, forcing a stop after shutdownTimeout
func stopGracefully(grpcServer *grpclib.Server, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("gRPC server stopped")
	case <-time.After(shutdownTimeout):
		log.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
}
