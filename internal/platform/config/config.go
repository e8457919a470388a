// Package config arma la configuración del proceso: archivo YAML opcional,
// después variables de entorno, después validación.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zonas del scheduler aunque la imagen no traiga tzdata

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App       string          `yaml:"app" validate:"required"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Sentry    SentryConfig    `yaml:"sentry"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type StorageConfig struct {
	Driver      string        `yaml:"driver" validate:"oneof=memory postgres sqlite"`
	DSN         string        `yaml:"dsn" validate:"required_if=Driver postgres"`
	Path        string        `yaml:"path" validate:"required_if=Driver sqlite"`
	BusyTimeout time.Duration `yaml:"busy_timeout" validate:"gte=0"`
}

type SchedulerConfig struct {
	// Zona IANA en la que se interpretan las horas de las dosis.
	Timezone string `yaml:"timezone" validate:"required"`
}

// NotifierConfig: sin WebhookURL los avisos sólo se loguean.
type NotifierConfig struct {
	WebhookURL string            `yaml:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration     `yaml:"timeout" validate:"gt=0"`
	Headers    map[string]string `yaml:"headers"`
}

// SentryConfig: sin DSN los panics sólo se loguean.
type SentryConfig struct {
	DSN         string `yaml:"dsn" validate:"omitempty,url"`
	Environment string `yaml:"environment"`
}

// Location resuelve Scheduler.Timezone (validada en Load).
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Defaults() Config {
	return Config{
		App: "pill-reminder",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			Path:        "data/pill-reminder.db",
			BusyTimeout: 5 * time.Second,
		},
		Scheduler: SchedulerConfig{Timezone: "UTC"},
		Notifier:  NotifierConfig{Timeout: 5 * time.Second},
	}
}

var validate = validator.New()

// Load parte de Defaults, aplica el YAML en path (si path no es vacío) y
// luego el entorno: PORT, APP_NAME, LOG_LEVEL, LOG_FORMAT, STORAGE_DRIVER,
// DB_DSN, SQLITE_PATH, SCHEDULER_TZ, NOTIFY_WEBHOOK_URL,
// SENTRY_DSN, SENTRY_ENVIRONMENT.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", describe(err))
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid config: scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := env("APP_NAME"); v != "" {
		cfg.App = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := env("DB_DSN"); v != "" {
		cfg.Storage.DSN = v
		// un DSN sin driver explícito implica postgres
		if env("STORAGE_DRIVER") == "" && cfg.Storage.Driver == DriverMemory {
			cfg.Storage.Driver = DriverPostgres
		}
	}
	if v := env("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := env("SQLITE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := env("SCHEDULER_TZ"); v != "" {
		cfg.Scheduler.Timezone = v
	}
	if v := env("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notifier.WebhookURL = v
	}
	if v := env("SENTRY_DSN"); v != "" {
		cfg.Sentry.DSN = v
	}
	if v := env("SENTRY_ENVIRONMENT"); v != "" {
		cfg.Sentry.Environment = v
	}
}

func normalize(cfg *Config) {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	// mismo alias que acepta el logger
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// describe resume los errores del validator en un mensaje legible.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
