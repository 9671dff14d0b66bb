package config

import (
	"time"
)

// Store kinds accepted by ImportConfig.Store.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config is the root importer configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Log      LogConfig      `yaml:"log"`
	Import   ImportConfig   `yaml:"import"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// SQLiteConfig holds settings for the file-backed dictionary database.
type SQLiteConfig struct {
	Path        string        `yaml:"path"         env:"SQLITE_PATH"         env-default:"./dict.db"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"SQLITE_BUSY_TIMEOUT" env-default:"5s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ImportConfig holds settings of the dictionary import pipeline.
type ImportConfig struct {
	Store     string        `yaml:"store"      env:"IMPORT_STORE"      env-default:"postgres"`
	Workers   int           `yaml:"workers"    env:"IMPORT_WORKERS"    env-default:"4"`
	BatchSize int           `yaml:"batch_size" env:"IMPORT_BATCH_SIZE" env-default:"500"`
	Replace   bool          `yaml:"replace"    env:"IMPORT_REPLACE"`
	DryRun    bool          `yaml:"dry_run"    env:"IMPORT_DRY_RUN"`
	Timeout   time.Duration `yaml:"timeout"    env:"IMPORT_TIMEOUT"    env-default:"30m"`
}
