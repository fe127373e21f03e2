// Package config loads the service configuration from WIKITYPE_ prefixed
// environment variables (and a .env file when present).
//
// Nested keys use "." as the delimiter:
//
//	WIKITYPE_DATABASE.DRIVER=sqlite -> database.driver -> Config.Database.Driver
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "WIKITYPE_"

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the sustained requests per second allowed per client IP
	// on the GraphQL endpoint. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=postgres mysql sqlite"`

	Host     string `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port     int    `koanf:"port" validate:"required_unless=Driver sqlite"`
	User     string `koanf:"user" validate:"required_unless=Driver sqlite"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required_unless=Driver sqlite"`
	SSLMode  string `koanf:"ssl_mode"`

	// Path is the database file for the sqlite driver.
	Path string `koanf:"path" validate:"required_if=Driver sqlite"`

	MaxOpenConns    int `koanf:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int `koanf:"conn_max_idle_time" validate:"min=0"`

	// AcquireTimeout bounds, in seconds, how long a request waits for a
	// pooled connection.
	AcquireTimeout int  `koanf:"acquire_timeout" validate:"min=0"`
	AutoMigrate    bool `koanf:"auto_migrate"`
}

type RedisConfig struct {
	// Address is optional; without it the JWKS cache stays in process.
	Address string `koanf:"address" validate:"omitempty,hostname_port"`
}

type AuthConfig struct {
	Enabled bool `koanf:"enabled"`
	// Required rejects requests without a bearer token.
	Required bool   `koanf:"required"`
	Issuer   string `koanf:"issuer" validate:"required_if=Enabled true"`
	ClientID string `koanf:"client_id"`
}

// LoadConfig reads, defaults and validates the configuration.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.Database.applyDefaults()

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = "wikitype-api"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (d *DatabaseConfig) applyDefaults() {
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = 20
	}
	// database/sql keeps no idle connections at zero, so every unit of work
	// would dial the server
	if d.MaxIdleConns == 0 || d.MaxIdleConns > d.MaxOpenConns {
		d.MaxIdleConns = d.MaxOpenConns
	}
	if d.AcquireTimeout == 0 {
		d.AcquireTimeout = 30
	}
	if d.Driver == DriverSQLite {
		// one writer at a time; a second connection only buys SQLITE_BUSY
		d.MaxOpenConns = 1
		d.MaxIdleConns = 1
	}
	if d.Driver == DriverPostgres && d.SSLMode == "" {
		d.SSLMode = "disable"
	}
}
