package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/thmjiya022/nnhair/internal/cart"
	"github.com/thmjiya022/nnhair/internal/config"
	"github.com/thmjiya022/nnhair/internal/lock"
	"github.com/thmjiya022/nnhair/internal/obs"
)

// TaskCartSweep deactivates carts past the retention window.
const TaskCartSweep = "cart:sweep"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "nnhair")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	cartSvc := &cart.Service{
		Store:     &cart.PostgresStore{Pool: pool},
		Retention: cfg.CartRetention,
	}
	locker := lock.Locker{R: redisClient}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri for task queue")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCartSweep, func(taskCtx context.Context, _ *asynq.Task) error {
		return locker.WithLock(taskCtx, "locks:cart-sweep", 5*time.Minute, func(lockCtx context.Context) error {
			swept, err := cartSvc.DeactivateExpired(lockCtx)
			if err != nil {
				return err
			}
			if obs.CartsSweptTotal != nil {
				obs.CartsSweptTotal.Add(float64(swept))
			}
			logger.Info().Int64("carts", swept).Msg("cart sweep complete")
			return nil
		})
	})

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	sweepEvery := envOrDefault("CART_SWEEP_INTERVAL", "@every 1h")
	if _, err := scheduler.Register(sweepEvery, asynq.NewTask(TaskCartSweep, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register cart sweep schedule")
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped with error")
		}
	}()

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
