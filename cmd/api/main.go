package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/importgroups-backend/api/routes"
	"github.com/angelmondragon/importgroups-backend/internal/archive"
	"github.com/angelmondragon/importgroups-backend/internal/cron"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/internal/notifications"
	"github.com/angelmondragon/importgroups-backend/pkg/config"
	"github.com/angelmondragon/importgroups-backend/pkg/db"
	"github.com/angelmondragon/importgroups-backend/pkg/instance"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/metrics"
	"github.com/angelmondragon/importgroups-backend/pkg/migrate"
	"github.com/angelmondragon/importgroups-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	groupMetrics := metrics.NewGroupMetrics(reg)
	cronMetrics := metrics.NewCronJobMetrics(reg)

	// Redis is optional; the collaborators stay nil interfaces without it.
	var (
		redisClient      *redis.Client
		redisPinger      redis.Pinger
		limiter          redis.RateLimiter
		idempotencyStore redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		redisPinger, limiter, idempotencyStore = redisClient, redisClient, redisClient
	}

	catalog, err := groups.LoadCatalog(cfg.Groups.CatalogFile)
	if err != nil {
		return err
	}

	var (
		listeners  []groups.Listener
		dbPinger   db.Pinger
		archiveSvc archive.Service
	)
	if cfg.FeatureFlags.Archive {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient.Close)
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
			return err
		}

		repo := archive.NewRepository(dbClient.DB())
		archiver, err := archive.NewArchiver(repo, logg)
		if err != nil {
			return err
		}
		archiveSvc, err = archive.NewService(repo)
		if err != nil {
			return err
		}
		listeners = append(listeners, archiver)
		dbPinger = dbClient
	}
	if redisClient != nil {
		publisher, err := notifications.NewPublisher(notifications.PublisherParams{
			Client:  redisClient,
			Channel: cfg.Groups.EventChannel,
			Logger:  logg,
		})
		if err != nil {
			return err
		}
		listeners = append(listeners, publisher)
	}

	engine, err := groups.NewEngine(groups.EngineParams{
		Catalog:             catalog,
		Random:              groups.NewRandomizer(cfg.Groups.Seed),
		Logger:              logg,
		Metrics:             groupMetrics,
		Listeners:           listeners,
		RetireDelay:         cfg.Groups.RetireDelay,
		MaxDemoGroups:       cfg.Groups.MaxDemoGroups,
		CreateProbability:   cfg.Groups.CreateProbability,
		MaxInitialOccupants: cfg.Groups.MaxInitialOccupants,
	})
	if err != nil {
		return err
	}
	closers = append(closers, func() error {
		engine.Close()
		return nil
	})

	groupsSvc, err := groups.NewService(engine, logg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.FeatureFlags.DemoMode {
		demo, err := newDemoScheduler(cfg, logg, engine, redisClient, cronMetrics)
		if err != nil {
			return err
		}
		engine.StartDemo(gctx)
		g.Go(func() error {
			if err := demo.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	addr := ":" + port(cfg)
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, reg, dbPinger, redisPinger, limiter, idempotencyStore, groupsSvc, archiveSvc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"demo_mode": cfg.FeatureFlags.DemoMode,
		"archive":   cfg.FeatureFlags.Archive,
		"redis":     redisClient != nil,
		"instance":  instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newDemoScheduler drives the demo tick. Replicas share a Redis lock only
// when asked to; otherwise every instance ticks its own engine.
func newDemoScheduler(cfg *config.Config, logg *logger.Logger, engine *groups.Engine, redisClient *redis.Client, cronMetrics *metrics.CronJobMetrics) (*cron.Service, error) {
	job, err := groups.NewDemoTickJob(engine, logg)
	if err != nil {
		return nil, err
	}
	registry, err := cron.NewRegistry(job)
	if err != nil {
		return nil, err
	}

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.FeatureFlags.SharedDemoLock && redisClient != nil {
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Groups.DemoLockKey), cfg.Groups.DemoLockTTL)
		if err != nil {
			return nil, err
		}
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Groups.TickInterval,
	})
}

func port(cfg *config.Config) string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return cfg.App.Port
}
