package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/app"
	"github.com/xycloo/multiuser-logging-service/internal/app/diagnostics"
	"github.com/xycloo/multiuser-logging-service/internal/config"
	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
	dbinfra "github.com/xycloo/multiuser-logging-service/internal/infrastructure/db"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/logging"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/monitoring"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/ratelimit"
	redisinfra "github.com/xycloo/multiuser-logging-service/internal/infrastructure/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync(logger)

	if err := monitoring.InitSentry(cfg.Monitoring, cfg.App); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	monitoring.Init(nil)
	defer monitoring.Flush()

	logBuffer := diagnostics.NewLogBuffer(cfg.Diagnostics.MaxLogLines)
	diagHandler := diagnostics.NewHandler(logBuffer, cfg.Diagnostics.EnableDebugLogs)

	var redisClient *redisinfra.Client
	if cfg.Redis.Addr != "" {
		client, err := redisinfra.Connect(ctx, cfg.Redis, logger)
		if err != nil {
			if cfg.Store.Archive == config.ArchiveRedis {
				logger.Fatal("redis required for archive", zap.Error(err))
			}
			logger.Warn("redis connect failed", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
			diagHandler.AddCheck("redis", func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				return client.Native.Ping(pingCtx).Err()
			})
		}
	}

	var (
		persistService *logs.PersistService
		logRepo        *dbinfra.LogRepository
	)
	if cfg.Database.Enabled {
		dbManager, err := dbinfra.Connect(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("db connect failed", zap.Error(err))
		}
		defer dbManager.Close()
		logRepo = dbinfra.NewLogRepository(dbManager.Write, dbManager.Read)
		if err := logRepo.Setup(ctx, cfg.Database.ResetOnStart); err != nil {
			logger.Fatal("db setup failed", zap.Error(err))
		}
		persistService = logs.NewPersistService(logRepo, logger.Named("persist"))
		diagHandler.AddCheck("database", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return dbManager.Write.PingContext(pingCtx)
		})
	}

	storeOpts := []logs.Option{logs.WithObserver(monitoring.CaptureObserver{})}
	var archiveReader logs.ArchiveReader
	switch cfg.Store.Archive {
	case config.ArchiveRedis:
		archiver := redisinfra.NewArchiver(redisClient.Native, cfg.Redis.ArchivePrefix, cfg.Redis.ArchiveTTL, logger.Named("archive"))
		storeOpts = append(storeOpts, logs.WithArchiver(archiver))
		archiveReader = archiver
	case config.ArchiveSQL:
		archiver := dbinfra.NewArchiver(logRepo, logger.Named("archive"))
		storeOpts = append(storeOpts, logs.WithArchiver(archiver))
		archiveReader = archiver
	}

	var backend logs.Backend = logs.NewStore(storeOpts...)
	if cfg.Store.Shards > 1 {
		backend = logs.NewShardedStore(cfg.Store.Shards, storeOpts...)
	}
	logger.Info("capture store ready",
		zap.Int("shards", cfg.Store.Shards),
		zap.String("archive", cfg.Store.Archive),
		zap.Bool("persistence", persistService != nil),
	)

	logService := logs.NewService(backend, logger.Named("logs"))
	logHandler := logs.NewHandler(logService, persistService, archiveReader, cfg.Ingest.MaxBodyBytes)

	var ipLimiter, userLimiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			ipLimiter = ratelimit.NewRedisLimiter(redisClient.Native, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RedisPrefix+":ip")
			userLimiter = ratelimit.NewRedisLimiter(redisClient.Native, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RedisPrefix+":user")
		} else {
			ipMem := ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
			userMem := ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
			go sweepLimiters(ctx, ipMem, userMem)
			ipLimiter, userLimiter = ipMem, userMem
		}
	}

	router := app.NewRouter(app.RouterDeps{
		Config:      cfg,
		LogHandler:  logHandler,
		Diagnostics: diagHandler,
		Logger:      logger,
		LogBuffer:   logBuffer,
		IPLimiter:   ipLimiter,
		UserLimiter: userLimiter,
	})

	server := &app.Server{Engine: router, Addr: ":" + cfg.App.Port, Logger: logger}
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func sweepLimiters(ctx context.Context, limiters ...*ratelimit.MemoryLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Sweep(10 * time.Minute)
			}
		}
	}
}
