package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"slotwise/internal/models"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the complete slotwise configuration
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	Repartition RepartitionConfig `toml:"repartition"`
	Levels      LevelsConfig      `toml:"levels"`
	Logging     LoggingConfig     `toml:"logging"`
	Server      ServerConfig      `toml:"server"`
}

// DatabaseConfig holds the postgres connection settings
type DatabaseConfig struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
}

// RedisConfig holds the redis settings used for run locks and the last summary
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RepartitionConfig controls the scheduled repartition job
type RepartitionConfig struct {
	DryRun     bool          `toml:"dry_run"`
	Interval   time.Duration `toml:"interval"`
	RunOnStart bool          `toml:"run_on_start"`
	LockTTL    time.Duration `toml:"lock_ttl"`
}

// LevelsConfig is the shelf naming table, keyed by level number
type LevelsConfig struct {
	Names    map[string]string `toml:"names"`
	Fallback string            `toml:"fallback"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

// Default returns the configuration used when a value is not set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{MaxConns: 10},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		Repartition: RepartitionConfig{
			DryRun:   false,
			Interval: 15 * time.Minute,
			LockTTL:  10 * time.Minute,
		},
		Levels: LevelsConfig{
			Names: map[string]string{
				"1": models.ShelfBottom,
				"2": models.ShelfMiddle,
				"3": models.ShelfTop,
			},
			Fallback: models.ShelfMiddle,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Server:  ServerConfig{Port: 8081},
	}
}

// Load reads the TOML file at path (skipped when empty), then applies
// environment overrides. Variables already in the environment win over envFiles.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(existing...)
	if err != nil {
		return nil, fmt.Errorf("failed to read env files: %w", err)
	}
	return values, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	if v, ok := lookup("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REDIS_DB: %w", err))
		} else {
			c.Redis.DB = db
		}
	}
	if v, ok := lookup("SLOTTING_DRY_RUN"); ok {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLOTTING_DRY_RUN: %w", err))
		} else {
			c.Repartition.DryRun = dryRun
		}
	}
	if v, ok := lookup("SLOTTING_INTERVAL"); ok {
		interval, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLOTTING_INTERVAL: %w", err))
		} else {
			c.Repartition.Interval = interval
		}
	}
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PORT: %w", err))
		} else {
			c.Server.Port = port
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}

	return errors.Join(errs...)
}

// Validate checks every section and returns all problems joined
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database: url is required"))
	}
	if c.Database.MaxConns < 0 {
		errs = append(errs, errors.New("database: max_conns must not be negative"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis: addr is required when enabled"))
	}
	if c.Repartition.Interval <= 0 {
		errs = append(errs, errors.New("repartition: interval must be positive"))
	}
	if c.Repartition.LockTTL <= 0 {
		errs = append(errs, errors.New("repartition: lock_ttl must be positive"))
	}
	if err := c.Levels.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("levels: %w", err))
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("logging: format must be json or text, got %q", c.Logging.Format))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: port must be between 1 and 65535, got %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

func (l *LevelsConfig) Validate() error {
	var errs []error
	for key, name := range l.Names {
		level, err := strconv.Atoi(key)
		if err != nil || level < 1 {
			errs = append(errs, fmt.Errorf("level key %q must be a positive integer", key))
		}
		if name == "" {
			errs = append(errs, fmt.Errorf("level %s has an empty name", key))
		}
	}
	if l.Fallback == "" {
		errs = append(errs, errors.New("fallback is required"))
	}
	return errors.Join(errs...)
}

// Namer builds the shelf naming table. Call after Validate.
func (l *LevelsConfig) Namer() models.LevelNamer {
	names := make(map[int]string, len(l.Names))
	for key, name := range l.Names {
		if level, err := strconv.Atoi(key); err == nil {
			names[level] = name
		}
	}
	return models.LevelNamer{Names: names, Fallback: l.Fallback}
}

// ParseLogLevel maps debug, info, warn and error to slog levels
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds the process logger from the logging section
func (c *LoggingConfig) NewLogger() *slog.Logger {
	level, _ := ParseLogLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
