// Package config loads service configuration from the environment and an
// optional YAML file named by CONFIG_PATH.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the full service configuration.
type Config struct {
	HTTP        HTTP        `yaml:"http"`
	Log         Log         `yaml:"log"`
	Tracing     Tracing     `yaml:"tracing"`
	Store       Store       `yaml:"store"`
	UserService UserService `yaml:"user_service"`
	Mailer      Mailer      `yaml:"mailer"`
}

// HTTP configures the listener and shutdown.
type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8443"`
	TLSCertFile     string        `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile      string        `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Tracing configures span export. An empty Host exports to stdout.
type Tracing struct {
	Host        string  `yaml:"host" env:"OTEL_HOST"`
	Probability float64 `yaml:"probability" env:"OTEL_PROBABILITY" env-default:"1.0" validate:"gte=0,lte=1"`
}

// Store selects and configures the order store backend.
type Store struct {
	Driver      string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory" validate:"oneof=memory postgres redis"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPrefix string `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"ordersvc"`
}

// UserService configures the user validation client. Durations are in
// milliseconds.
type UserService struct {
	URL             string `yaml:"url" env:"USER_SERVICE_URL" validate:"required,url"`
	TimeoutMS       int    `yaml:"timeout_ms" env:"USER_SERVICE_TIMEOUT_MS" env-default:"2000" validate:"gt=0"`
	MaxAttempts     uint   `yaml:"max_attempts" env:"USER_SERVICE_MAX_ATTEMPTS" env-default:"1" validate:"gte=1"`
	BackoffMS       int    `yaml:"backoff_ms" env:"USER_SERVICE_BACKOFF_MS" env-default:"100" validate:"gte=0"`
	BreakerFailures uint32 `yaml:"breaker_failures" env:"USER_SERVICE_BREAKER_FAILURES" env-default:"5"`
}

// Mailer configures notification delivery.
type Mailer struct {
	URL          string `yaml:"url" env:"MAILER_URL"`
	TimeoutMS    int    `yaml:"timeout_ms" env:"MAILER_TIMEOUT_MS" env-default:"5000" validate:"gt=0"`
	SendMails    bool   `yaml:"send_mails" env:"SEND_MAILS" env-default:"false"`
	ManagerEmail string `yaml:"manager_email" env:"MANAGER_EMAIL"`
	AdminEmail   string `yaml:"admin_email" env:"ADMIN_EMAIL"`
}

// Timeout bounds one Validate call.
func (u UserService) Timeout() time.Duration {
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// Backoff is the first wait between lookup attempts.
func (u UserService) Backoff() time.Duration {
	return time.Duration(u.BackoffMS) * time.Millisecond
}

// Timeout bounds one send.
func (m Mailer) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the settings each driver or switch needs.
func (c *Config) Validate() error {
	var errs []error

	v := validator.New()
	if err := v.Struct(c); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	}

	if (c.HTTP.TLSCertFile == "") != (c.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}

	if c.Mailer.SendMails {
		if c.Mailer.URL == "" {
			errs = append(errs, errors.New("MAILER_URL is required when SEND_MAILS is on"))
		}
		for name, addr := range map[string]string{"MANAGER_EMAIL": c.Mailer.ManagerEmail, "ADMIN_EMAIL": c.Mailer.AdminEmail} {
			// Same rule the dispatcher applies to message recipients.
			if err := v.Var(addr, "required,email"); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TLS reports whether the server should serve HTTPS.
func (c *Config) TLS() bool {
	return c.HTTP.TLSCertFile != "" && c.HTTP.TLSKeyFile != ""
}
