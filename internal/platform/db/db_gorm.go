// Package db はgormによるデータベース接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	analysisadapters "stock_analysis/internal/feature/analysis/adapters"
	candleadapters "stock_analysis/internal/feature/candles/adapters"
	symbolentity "stock_analysis/internal/feature/symbollist/domain/entity"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config はDB_*環境変数から読み込まれる接続設定です。
// INSTANCE_CONNECTION_NAMEとRUN_MIGRATIONSはプレフィックスなしでも読み込まれます。
type Config struct {
	User           string        `envconfig:"USER" default:"postgres"`
	Password       string        `envconfig:"PASSWORD"`
	Name           string        `envconfig:"NAME" default:"stock_analysis"`
	Host           string        `envconfig:"HOST" default:"localhost"`
	Port           string        `envconfig:"PORT" default:"5432"`
	SSLMode        string        `envconfig:"SSLMODE" default:"disable"`
	InstanceName   string        `envconfig:"INSTANCE_CONNECTION_NAME"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"60s"`
	MaxOpenConns   int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	RunMigrations  bool          `envconfig:"RUN_MIGRATIONS" default:"false"`
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("DB", &cfg); err != nil {
		return Config{}, fmt.Errorf("db config from env: %w", err)
	}
	return cfg, nil
}

// BuildDSN はpostgresのkeyword/value形式のDSNを生成します。
// InstanceNameが設定されている場合はCloud SQLのUnixソケットを使用し、Host/Portは無視されます。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts := []string{
		"user=" + quoteDSNValue(cfg.User),
		"password=" + quoteDSNValue(cfg.Password),
		"dbname=" + quoteDSNValue(cfg.Name),
	}
	if cfg.InstanceName != "" {
		parts = append(parts, "host="+quoteDSNValue("/cloudsql/"+cfg.InstanceName))
	} else {
		parts = append(parts, "host="+quoteDSNValue(cfg.Host), "port="+quoteDSNValue(cfg.Port))
	}
	parts = append(parts, "sslmode="+sslmode, "TimeZone=Asia/Seoul")
	return strings.Join(parts, " ")
}

// quoteDSNValue は空文字や空白・引用符を含む値をシングルクォートで囲みます。
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Opener はDSNからgorm接続を開く関数です。テストで差し替えられます。
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry はtimeoutに達するまでretryInterval間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		slog.Warn("DB connect failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(retryInterval)
	}
}

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// OpenDB は接続を確立し、RunMigrationsが有効ならマイグレーションを実行します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, openPostgres)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		slog.Info("DB migrations applied")
	}
	return db, nil
}

// Migrate は銘柄・ローソク足・分析結果のテーブルを作成または更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&symbolentity.Symbol{},
		&candleadapters.CandleModel{},
		&analysisadapters.AnalysisModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
