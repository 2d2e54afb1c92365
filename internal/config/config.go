package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		ENV string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Component string `yaml:"component"`
		Source    bool   `yaml:"source"`
	} `yaml:"log"`

	DB struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		LogSQL   bool   `yaml:"log_sql"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Matching struct {
		Reciprocity    string `yaml:"reciprocity"`
		CandidateLimit int    `yaml:"candidate_limit"`
	} `yaml:"matching"`

	Realtime struct {
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"realtime"`
}

// New builds the config from environment variables only.
func New() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	return cfg
}

// Load reads an optional YAML file and then applies environment variables on top.
// An empty path or a missing file yields the same result as New.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv fills cfg from env vars. A set env var always wins; unset ones keep
// the file value, and the default applies only when both are empty.
func applyEnv(cfg *Config) {
	cfg.App.ENV = envOr("APP_ENV", cfg.App.ENV, "development")

	// Logger
	cfg.Log.Level = envOr("LOG_LEVEL", cfg.Log.Level, "info")
	cfg.Log.Format = envOr("LOG_FORMAT", cfg.Log.Format, "text")
	cfg.Log.Component = envOr("LOG_COMPONENT", cfg.Log.Component, "match_core")
	if v, ok := lookup("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// Database
	cfg.DB.Driver = strings.ToLower(envOr("DB_DRIVER", cfg.DB.Driver, "mysql"))
	if v, ok := lookup("LOG_SQL"); ok {
		cfg.DB.LogSQL = isTruthy(v)
	}
	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.DSN = envOr("DATABASE_URL", cfg.DB.DSN, "")
	case "sqlite":
		cfg.DB.DSN = envOr("SQLITE_PATH", cfg.DB.DSN, "file:unimeet.db?cache=shared")
	default:
		cfg.DB.DSN = envOr("MYSQL_DSN", cfg.DB.DSN, "")
	}
	if cfg.DB.DSN == "" {
		cfg.DB.Host = envOr("DB_HOST", cfg.DB.Host, "localhost")
		cfg.DB.User = envOr("DB_USER", cfg.DB.User, "root")
		cfg.DB.Password = envOr("DB_PASSWORD", cfg.DB.Password, "root")
		cfg.DB.Name = envOr("DB_NAME", cfg.DB.Name, "unimeet")

		if cfg.DB.Driver == "postgres" {
			cfg.DB.Port = envOr("DB_PORT", cfg.DB.Port, "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		} else {
			cfg.DB.Port = envOr("DB_PORT", cfg.DB.Port, "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = envOr("REDIS_ADDR", cfg.Redis.Addr, "localhost:6379")
	cfg.Redis.Password = envOr("REDIS_PASSWORD", cfg.Redis.Password, "")
	if dbStr, ok := lookup("REDIS_DB"); ok {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = envOr("GRPC_HOST", cfg.GRPC.Host, "127.0.0.1")
	cfg.GRPC.Port = envOr("GRPC_PORT", cfg.GRPC.Port, "50051")

	// HTTP health
	cfg.HTTP.Port = envOr("HTTP_PORT", cfg.HTTP.Port, "8080")

	// Auth
	cfg.Auth.JWTSecret = envOr("AUTH_JWT_SECRET", cfg.Auth.JWTSecret, "")

	// Matching
	cfg.Matching.Reciprocity = strings.ToLower(envOr("MATCH_RECIPROCITY", cfg.Matching.Reciprocity, "any"))
	if v, ok := lookup("CANDIDATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Matching.CandidateLimit = n
		}
	}
	if cfg.Matching.CandidateLimit <= 0 {
		cfg.Matching.CandidateLimit = 50
	}

	// Realtime
	if v, ok := lookup("REALTIME_POLL_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Realtime.PollInterval = d
		}
	}
	if cfg.Realtime.PollInterval <= 0 {
		cfg.Realtime.PollInterval = 3 * time.Second
	}
}

func lookup(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	return v, v != ""
}

func envOr(k, current, def string) string {
	if v, ok := lookup(k); ok {
		return v
	}
	if current != "" {
		return current
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
