// Command ingest はTwelve Data APIから日足・週足・月足を取得してcandlesテーブルに保存します。
//
// 使い方:
//
//	ingest <code>     1銘柄を取り込む（series-ingestionステージとして起動される形式）
//	ingest --all      アクティブな全銘柄を取り込む
//
// 成功時は標準出力に1行のJSONサマリーを書き、失敗時は理由を標準エラーに書いて終了コード1で終了します。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"stock_analysis/internal/app/di"
	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	candlesadapters "stock_analysis/internal/feature/candles/adapters"
	"stock_analysis/internal/feature/candles/usecase"
	symbollistadapters "stock_analysis/internal/feature/symbollist/adapters"
	"stock_analysis/internal/platform/cache"
	"stock_analysis/internal/platform/db"
	"stock_analysis/internal/platform/externalapi/twelvedata"
	platformredis "stock_analysis/internal/platform/redis"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage は引数が不正な場合のエラーです。
var errUsage = errors.New("usage: ingest <6-digit code> | ingest --all")

type options struct {
	all     bool
	code    string
	timeout time.Duration
}

type ingester interface {
	IngestCode(ctx context.Context, code string) (usecase.IngestSummary, error)
	IngestAll(ctx context.Context, codes []string) ([]usecase.IngestSummary, error)
}

type codeLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// buildFunc は取り込みに必要な依存を組み立てます。テストで差し替えられます。
type buildFunc func(ctx context.Context) (ingester, codeLister, func(), error)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr, build))
}

func realMain(args []string, stdout, stderr io.Writer, deps buildFunc) int {
	// 標準出力はサマリー専用のため、ログは標準エラーに出す
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cmd := newRootCmd(stdout, deps)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return exitUsage
	default:
		fmt.Fprintln(stderr, err)
		return exitError
	}
}

// newRootCmd はingestコマンドを生成します。
// 標準出力にはサマリーだけを書くため、cobraの使い方表示とエラー出力は抑止します。
func newRootCmd(stdout io.Writer, deps buildFunc) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "ingest <code>",
		Short:         "Fetch daily, weekly and monthly candles into the candles table",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.all {
				if err := cobra.NoArgs(cmd, args); err != nil {
					return fmt.Errorf("%w: %w", errUsage, err)
				}
				return nil
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			key, err := analysisentity.ParseKey(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			opts.code = key.String()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			ing, lister, closeFn, err := deps(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			return execute(ctx, opts, ing, lister, stdout)
		},
	}
	cmd.Flags().BoolVar(&opts.all, "all", false, "ingest every active symbol")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall deadline")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})
	return cmd
}

// execute は取り込みを実行し、サマリーをJSONでstdoutに書き込みます。
func execute(ctx context.Context, opts options, ing ingester, lister codeLister, stdout io.Writer) error {
	enc := json.NewEncoder(stdout)

	if !opts.all {
		sum, err := ing.IngestCode(ctx, opts.code)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", opts.code, err)
		}
		return enc.Encode(sum)
	}

	codes, err := lister.ListActiveCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}
	sums, err := ing.IngestAll(ctx, codes)
	if encErr := enc.Encode(sums); encErr != nil {
		return encErr
	}
	if err != nil {
		return fmt.Errorf("ingest all: %w", err)
	}
	var failed int
	for _, s := range sums {
		if len(s.Failed) > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("ingest all: %d of %d symbols had failures", failed, len(sums))
	}
	return nil
}

// build はDB・外部API・（設定されていれば）Redisを接続して依存を組み立てます。
// Redisがある場合はサーバー側のローソク足キャッシュも書き込み時に無効化されます。
func build(ctx context.Context) (ingester, codeLister, func(), error) {
	dbCfg, err := db.LoadConfigFromEnv()
	if err != nil {
		return nil, nil, nil, err
	}
	gdb, err := db.OpenDB(dbCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, nil, err
	}

	marketCfg, err := twelvedata.LoadConfig()
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, err
	}

	var rdb *redisv9.Client
	if redisCfg, err := platformredis.LoadConfig(); err == nil && redisCfg.Enabled() {
		if tmp, err := platformredis.NewRedisClient(ctx, redisCfg); err == nil {
			rdb = tmp
		} else {
			slog.Warn("Redis unavailable. Candle cache will not be invalidated.", "error", err)
		}
	}

	candleRepo := cache.NewCachingCandleRepository(rdb, nil, candlesadapters.NewCandleRepository(gdb), "candles")
	uc := di.NewIngestUsecase(marketCfg, di.NewMarket(marketCfg), candleRepo)

	closeFn := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = sqlDB.Close()
	}
	return uc, symbollistadapters.NewSymbolRepository(gdb), closeFn, nil
}
