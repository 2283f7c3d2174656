// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package config

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quadrel-dev/quadrel/internal/backend"
	"github.com/quadrel-dev/quadrel/internal/store"
	"github.com/quadrel-dev/quadrel/internal/trigger"
	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
)

// Config is the top-level Quadrel configuration.
type Config struct {
	DB                 DBConfig      `mapstructure:"db"`
	Store              StoreConfig   `mapstructure:"store"`
	RDF                RDFConfig     `mapstructure:"rdf"`
	IgnoreOptimization bool          `mapstructure:"ignore_optimization"`
	Log                LogConfig     `mapstructure:"log"`
	Metrics            MetricsConfig `mapstructure:"metrics"`
}

// DBConfig selects and addresses the relational backend.
type DBConfig struct {
	Adapter     string `mapstructure:"adapter"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Pwd         string `mapstructure:"pwd"`
	Name        string `mapstructure:"name"`
	Path        string `mapstructure:"path"`
	TablePrefix string `mapstructure:"table_prefix"`
	// LockLease ends a SQLite advisory lock whose holder never released it.
	LockLease time.Duration `mapstructure:"lock_lease"`
}

// StoreConfig controls one quad store.
type StoreConfig struct {
	Name            string              `mapstructure:"name"`
	Triggers        map[string][]string `mapstructure:"triggers"`
	TriggersPath    string              `mapstructure:"triggers_path"`
	QueryLog        string              `mapstructure:"query_log"`
	QueueQueries    bool                `mapstructure:"queue_queries"`
	QueueWait       time.Duration       `mapstructure:"queue_wait"`
	LockTimeout     int                 `mapstructure:"lock_timeout"`
	MaxSplitTables  int                 `mapstructure:"max_split_tables"`
	SplitPredicates []string            `mapstructure:"split_predicates"`
	SplitThreshold  int64               `mapstructure:"split_threshold"`
}

type RDFConfig struct {
	LabelProperties []string `mapstructure:"label_properties"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus textfile written after each command.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db.adapter", backend.DefaultAdapter)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.path", "quadrel.db")
	v.SetDefault("db.lock_lease", backend.DefaultLockLease)
	v.SetDefault("store.name", "arc")
	v.SetDefault("store.queue_queries", false)
	v.SetDefault("store.queue_wait", store.DefaultQueueWait)
	v.SetDefault("store.lock_timeout", store.DefaultLockTimeout)
	v.SetDefault("store.max_split_tables", store.DefaultMaxSplitTables)
	v.SetDefault("ignore_optimization", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// SetupEnv maps QUADREL_-prefixed environment variables onto config keys,
// so QUADREL_DB_HOST overrides db.host.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("QUADREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, quadrelerr.Errorf(quadrelerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateDB()...)
	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateLog()...)

	return errs
}

func (c *Config) validateDB() []error {
	var errs []error

	adapters := backend.Registered()
	adapter := c.DB.Adapter
	if adapter == "" {
		adapter = backend.DefaultAdapter
	}
	if len(adapters) > 0 && !contains(adapters, adapter) {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: db.adapter must be one of %v, got %q", adapters, c.DB.Adapter))
	}

	switch adapter {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
				"config: db.path must not be empty for the sqlite adapter"))
		}
		if c.DB.LockLease < 0 {
			errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
				"config: db.lock_lease must not be negative, got %s", c.DB.LockLease))
		}
	case "mysql":
		if c.DB.Name == "" {
			errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
				"config: db.name must not be empty for the mysql adapter"))
		}
		if c.DB.Port < 1 || c.DB.Port > 65535 {
			errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
				"config: db.port must be between 1 and 65535, got %d", c.DB.Port))
		}
	}

	if c.DB.TablePrefix != "" && !identPattern.MatchString(c.DB.TablePrefix) {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: db.table_prefix may only contain letters, digits and '_', got %q", c.DB.TablePrefix))
	}

	return errs
}

func (c *Config) validateStore() []error {
	var errs []error

	if !identPattern.MatchString(c.Store.Name) {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: store.name may only contain letters, digits and '_', got %q", c.Store.Name))
	}
	if c.Store.MaxSplitTables < 0 {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: store.max_split_tables must not be negative, got %d", c.Store.MaxSplitTables))
	}
	if c.Store.SplitThreshold < 0 {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: store.split_threshold must not be negative, got %d", c.Store.SplitThreshold))
	}
	if c.Store.LockTimeout <= 0 {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: store.lock_timeout must be greater than 0, got %d", c.Store.LockTimeout))
	}
	if _, err := trigger.NewBindings(c.Store.Triggers); err != nil {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: store.triggers: %w", err))
	}

	return errs
}

func (c *Config) validateLog() []error {
	var errs []error

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: log.format must be one of [text, json], got %q", c.Log.Format))
	}

	return errs
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, quadrelerr.Errorf(quadrelerr.CodeConfigValidateInvalidValue,
			"config: log.level must be one of [debug, info, warn, error], got %q", s)
	}
	return l, nil
}

// Backend returns the adapter configuration.
func (c *Config) Backend() backend.Config {
	return backend.Config{
		Adapter:  c.DB.Adapter,
		Host:     c.DB.Host,
		Port:     c.DB.Port,
		User:     c.DB.User,
		Password: c.DB.Pwd,
		Name:     c.DB.Name,
		Path:     c.DB.Path,

		LockLease: c.DB.LockLease,
	}
}

// StoreOptions returns the store options for the configured store.
func (c *Config) StoreOptions(logger *slog.Logger) store.Options {
	return store.Options{
		Name:               c.Store.Name,
		TablePrefix:        c.DB.TablePrefix,
		QueueQueries:       c.Store.QueueQueries,
		QueueWait:          c.Store.QueueWait,
		LockTimeout:        c.Store.LockTimeout,
		MaxSplitTables:     c.Store.MaxSplitTables,
		SplitPredicates:    c.Store.SplitPredicates,
		SplitThreshold:     c.Store.SplitThreshold,
		LabelProperties:    c.RDF.LabelProperties,
		IgnoreOptimization: c.IgnoreOptimization,
		Logger:             logger,
	}
}

// Bindings returns the trigger bindings from store.triggers merged with
// those of the store.triggers_path file.
func (c *Config) Bindings() (trigger.Bindings, error) {
	b, err := trigger.NewBindings(c.Store.Triggers)
	if err != nil {
		return nil, err
	}
	if c.Store.TriggersPath == "" {
		return b, nil
	}
	fromFile, err := trigger.LoadBindings(c.Store.TriggersPath)
	if err != nil {
		return nil, err
	}
	return b.Merge(fromFile), nil
}

// QueryLogPath returns the querylog trigger's file. It defaults to
// queries.log next to the SQLite database.
func (c *Config) QueryLogPath() string {
	if c.Store.QueryLog != "" {
		return c.Store.QueryLog
	}
	return filepath.Join(filepath.Dir(c.DB.Path), "queries.log")
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
