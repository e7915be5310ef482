// Polyglot API — HTTP сервис, выполняющий pipeline анализа текста.
//
// Процесс:
//   - Загружает конфигурацию (defaults → YAML → env)
//   - Подключает кэш ответов в PostgreSQL и планировщик его очистки
//   - Публикует снимки runs в RabbitMQ (если брокер доступен)
//   - Обслуживает HTTP API, /healthz и /metrics
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Polyglot/internal/api"
	"github.com/shaiso/Polyglot/internal/config"
	"github.com/shaiso/Polyglot/internal/domain"
	"github.com/shaiso/Polyglot/internal/mq"
	"github.com/shaiso/Polyglot/internal/orchestrator"
	"github.com/shaiso/Polyglot/internal/repo"
	"github.com/shaiso/Polyglot/internal/scheduler"
	"github.com/shaiso/Polyglot/internal/stageclient"
	"github.com/shaiso/Polyglot/internal/stages"
	"github.com/shaiso/Polyglot/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

var startTime = time.Now()

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "polyglot-api",
		Short:         "Polyglot API — multi-language text analysis pipeline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", os.Getenv("POLYGLOT_CONFIG"), "Path to YAML config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting polyglot-api", "version", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	table, err := stages.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build stage table: %w", err)
	}
	logger.Info("stage table loaded", "stages", table.Names(), "model_id", cfg.ModelID)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Кэш ответов этапов
	var cache stageclient.Cache
	var cacheSched *scheduler.Scheduler
	if cfg.Cache.Enabled {
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database not available, running without cache", "error", err)
		} else {
			defer pool.Close()
			logger.Info("database connected")

			if err := repo.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			cacheRepo := repo.NewCacheRepo(pool)
			cache = cacheRepo

			cacheSched, err = scheduler.New(scheduler.Config{
				Purger:   cacheRepo,
				CronExpr: cfg.Cache.PurgeCron,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("create cache scheduler: %w", err)
			}
		}
	}

	// RabbitMQ
	presenters := []orchestrator.Presenter{
		orchestrator.PresenterFunc(func(_ context.Context, s domain.Snapshot) error {
			logger.Debug("run snapshot", "run_id", s.RunID, "status", s.Status)
			return nil
		}),
	}

	mqConn, err := mq.NewConnection(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, snapshots will not be published", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		presenters = append(presenters, mq.NewPublisher(mqConn, logger))
	}

	client := stageclient.New(stageclient.Config{
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL.Duration(),
		Logger:   logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		Client:    client,
		Table:     table,
		Presenter: orchestrator.MultiPresenter(presenters...),
		Logger:    logger,
	})

	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if orch.IsStopped() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cacheSched != nil {
		g.Go(func() error {
			if err := cacheSched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Graceful shutdown с таймаутом 10 секунд
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		// Отменяем текущий run и ждём его финализации
		orch.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("stopped")
	return nil
}
