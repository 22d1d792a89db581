package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-analytics-engine/db"
	"github.com/trogers1052/stock-analytics-engine/internal/api"
	"github.com/trogers1052/stock-analytics-engine/internal/cache"
	"github.com/trogers1052/stock-analytics-engine/internal/config"
	"github.com/trogers1052/stock-analytics-engine/internal/database"
	"github.com/trogers1052/stock-analytics-engine/internal/kafka"
	"github.com/trogers1052/stock-analytics-engine/internal/loader"
	"github.com/trogers1052/stock-analytics-engine/internal/scheduler"
	"github.com/trogers1052/stock-analytics-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.Logging)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// run wires every component and blocks until a shutdown signal or a fatal
// serve error. Deferred cleanups run on every return path.
func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Price history source
	var (
		source loader.BarSource
		store  *database.DB
	)
	switch cfg.Data.Source {
	case config.SourcePostgres:
		var err error
		store, err = database.New(cfg.Database.ConnectionString())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		if cfg.Database.Migrate {
			if err := store.Migrate(db.Migrations, "migrations"); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		source = store
	case config.SourceDirectory:
		source = loader.NewDirSource(cfg.Data.Dir)
	}

	// Result cache
	opts := cache.Options{
		TTL:            cfg.Cache.TTL,
		MaxEntries:     cfg.Cache.MaxEntries,
		ComputeTimeout: cfg.Cache.ComputeTimeout,
	}
	if cfg.Redis.Enabled {
		redisStore := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisStore.Close()
		if err := redisStore.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, continuing with in-process cache only")
		} else {
			opts.Remote = redisStore
		}
	}

	analyzer := service.New(source, cfg.Engine.Analytics(), cache.New(opts), service.NewMetrics(reg))
	analyzer.SetParallelism(cfg.Cache.Parallelism)

	// Price bar ingest
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, store, analyzer)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("kafka consumer stopped")
			}
		}()
	}

	// Cache warm-up
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(ctx, analyzer, analyzer, cfg.Scheduler.Watchlist)
		if err := sched.Register(cfg.Scheduler.WarmCron); err != nil {
			return fmt.Errorf("failed to register scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		if cfg.Scheduler.RunOnStart {
			go sched.RunNow()
		}
	}

	handler := api.NewHandler(analyzer)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.SetupRoutes(handler, api.NewHTTPMetrics(reg), reg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("source", cfg.Data.Source).
		Ints("sma_windows", cfg.Engine.SMAWindows).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("redis", opts.Remote != nil).
		Msg("server starting")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("initiating graceful shutdown")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

func setupLogging(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
