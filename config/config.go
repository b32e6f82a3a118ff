// Package config loads the application configuration from the environment.
//
// Variables use the YTR_ prefix and a double underscore for nesting, so
// YTR_DATABASE__URL maps to Config.Database.URL. A `.env` file in the working
// directory is loaded first when present. Every field has a default except
// the database URL and the JWT secret.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "YTR_"

// listKeys are the settings read as comma separated lists.
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
}

type Config struct {
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Jobs     JobsConfig     `koanf:"jobs"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
	// SlowRequest is the latency above which requests are logged as slow.
	SlowRequest time.Duration `koanf:"slow_request"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	// SeedCatalog inserts the default service types and payment methods.
	SeedCatalog bool `koanf:"seed_catalog"`
}

type AuthConfig struct {
	JWTSecret   string `koanf:"jwt_secret" validate:"required,min=16"`
	ExpiryHours int    `koanf:"expiry_hours" validate:"min=1"`
	BcryptCost  int    `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

func (a AuthConfig) Expiry() time.Duration {
	return time.Duration(a.ExpiryHours) * time.Hour
}

type JobsConfig struct {
	AverageSweepEnabled bool   `koanf:"average_sweep_enabled"`
	AverageSweepSpec    string `koanf:"average_sweep_spec" validate:"required_if=AverageSweepEnabled true"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// Default returns the configuration used for every variable left unset.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "8080",
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			SlowRequest:        200 * time.Millisecond,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    100,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
			SeedCatalog:     true,
		},
		Auth: AuthConfig{
			ExpiryHours: 24,
			BcryptCost:  12,
		},
		Jobs: JobsConfig{
			AverageSweepEnabled: true,
			AverageSweepSpec:    "0 3 * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envValue maps the variable name with envKey and splits list settings.
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// envKey maps YTR_DATABASE__MAX_OPEN_CONNS to database.max_open_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
