package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskstore/api/handler"
	"github.com/fastygo/taskstore/internal/config"
	boltInfra "github.com/fastygo/taskstore/internal/infrastructure/bolt"
	"github.com/fastygo/taskstore/internal/infrastructure/buffer"
	"github.com/fastygo/taskstore/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskstore/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskstore/internal/infrastructure/redis"
	"github.com/fastygo/taskstore/internal/middleware"
	"github.com/fastygo/taskstore/internal/router"
	"github.com/fastygo/taskstore/internal/services"
	"github.com/fastygo/taskstore/internal/services/lifecycle"
	"github.com/fastygo/taskstore/pkg/httpcontext"
	"github.com/fastygo/taskstore/pkg/logger"
	"github.com/fastygo/taskstore/repository"
	"github.com/fastygo/taskstore/repository/boltdb"
	"github.com/fastygo/taskstore/repository/breaker"
	"github.com/fastygo/taskstore/repository/memory"
	"github.com/fastygo/taskstore/repository/postgres"
	redisRepo "github.com/fastygo/taskstore/repository/redis"
	taskUC "github.com/fastygo/taskstore/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	db, err := boltInfra.Open(cfg.Bolt.Path, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open bolt database", zap.Error(err))
	}
	manager.RegisterCloser("bolt", func() error { return boltInfra.Close(db, zapLogger) })

	local, err := boltdb.NewTaskSource(db, cfg.Bolt.TaskBucket)
	if err != nil {
		zapLogger.Fatal("failed to prepare local task store", zap.Error(err))
	}

	backend := buildRemote(appCtx, cfg, manager, zapLogger)
	remote := breaker.New(backend, breaker.Settings{
		Name:             "remote-" + cfg.Remote.Backend,
		CallTimeout:      cfg.Remote.CallTimeout,
		MaxFailures:      cfg.Remote.MaxFailures,
		OpenTimeout:      cfg.Remote.OpenTimeout,
		HalfOpenRequests: cfg.Remote.HalfOpenRequests,
	}, logger.Component(zapLogger, "breaker"))

	outbox, err := buffer.New(db, cfg.Buffer.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to prepare outbox", zap.Error(err))
	}

	mon := monitor.New(map[string]monitor.Pinger{
		"remote": remote,
		"local":  local,
	}, outbox, cfg.Remote.MonitorInterval, logger.Component(zapLogger, "monitor"))
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	bufferProcessor := services.NewBufferProcessor(
		outbox,
		mon,
		remote,
		logger.Component(zapLogger, "outbox"),
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  cfg.Buffer.Retention(),
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	tasks := repository.NewTasks(remote, local,
		repository.WithLogger(logger.Component(zapLogger, "tasks")),
		repository.WithWriteBuffer(services.NewBufferBridge(bufferProcessor)),
	)
	taskUseCase := taskUC.New(tasks, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, remote, ctxAdapter, zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = apiHandler.Metrics()
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware, router.Options{EnablePprof: cfg.HTTP.EnablePprof})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("remote", cfg.Remote.Backend),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// buildRemote connects the configured remote backend and registers its
// shutdown hook.
func buildRemote(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repository.DataSource {
	switch cfg.Remote.Backend {
	case config.RemotePostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		return postgres.NewTaskSource(pool)

	case config.RemoteRedis:
		client, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.RegisterCloser("redis", client.Close)
		return redisRepo.NewTaskSource(client, cfg.Remote.RedisPrefix)

	default:
		zapLogger.Warn("using in-memory remote", zap.Duration("latency", cfg.Remote.Latency))
		return memory.NewSource(cfg.Remote.Latency)
	}
}
