package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisv9 "github.com/redis/go-redis/v9"

	"stock_analysis/internal/app/di"
	"stock_analysis/internal/app/router"
	analysishandler "stock_analysis/internal/feature/analysis/transport/handler"
	analysisusecase "stock_analysis/internal/feature/analysis/usecase"
	candlesadapters "stock_analysis/internal/feature/candles/adapters"
	candleshandler "stock_analysis/internal/feature/candles/transport/handler"
	candlesusecase "stock_analysis/internal/feature/candles/usecase"
	symbollistadapters "stock_analysis/internal/feature/symbollist/adapters"
	symbollisthandler "stock_analysis/internal/feature/symbollist/transport/handler"
	symbollistusecase "stock_analysis/internal/feature/symbollist/usecase"
	"stock_analysis/internal/platform/cache"
	"stock_analysis/internal/platform/db"
	"stock_analysis/internal/platform/http/handler"
	"stock_analysis/internal/platform/metrics"
	platformredis "stock_analysis/internal/platform/redis"
	"stock_analysis/internal/platform/stagerunner"
)

// serverConfig はSERVER_*環境変数から読み込まれる設定です。
type serverConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	LockTTL         time.Duration `envconfig:"LOCK_TTL" default:"10m"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg serverConfig
	if err := envconfig.Process("SERVER", &cfg); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	dbCfg, err := db.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	gdb, err := db.OpenDB(dbCfg)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis（任意）
	var rdb *redisv9.Client
	redisCfg, err := platformredis.LoadConfig()
	if err != nil {
		return err
	}
	if redisCfg.Enabled() {
		if tmp, err := platformredis.NewRedisClient(ctx, redisCfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache and cross-process locks.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	// ステージ実行
	stageCfg, err := stagerunner.LoadConfig()
	if err != nil {
		return err
	}
	runner := stagerunner.NewRunner(stageCfg, rec)

	// Repository
	symbolRepo := symbollistadapters.NewSymbolRepository(gdb)
	candleRepo := cache.NewCachingCandleRepository(rdb, cache.TimeUntilNext8AM, candlesadapters.NewCandleRepository(gdb), "candles")

	// Usecase
	analysisUC := di.NewAnalysisUsecase(gdb, rdb, runner, rec, cfg.LockTTL)
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo, analysisusecase.NewResolver(symbolRepo))
	candlesUC := candlesusecase.NewCandlesUsecase(candleRepo)

	// Handler
	checks := map[string]handler.Check{"db": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	r := router.NewRouter(router.Handlers{
		Analysis: analysishandler.NewAnalysisHandler(analysisUC),
		Candles:  candleshandler.NewCandlesHandler(candlesUC),
		Symbols:  symbollisthandler.NewSymbolHandler(symbolUC),
		Health:   handler.NewHealthHandler(checks, 2*time.Second),
	}, rec, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "stages", len(stageCfg.Stages))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// setupLogger はJSON形式のslogをデフォルトロガーに設定します。不正なレベルはinfoとして扱います。
func setupLogger(level string) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}
