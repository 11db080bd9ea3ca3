package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type EngineConfig struct {
	// PreviewTokenKey encrypts the opaque token handed out by reassignment
	// preview. Must be 16, 24 or 32 bytes for AES.
	PreviewTokenKey string
	// CancelSuperseded controls whether a replace-merge cancels superseded
	// live events (true) or deletes them (false).
	CancelSuperseded bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Postal Operations Console"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "postal_ops"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Engine: EngineConfig{
			PreviewTokenKey:  getEnv("PREVIEW_TOKEN_KEY", ""),
			CancelSuperseded: getEnv("MERGE_CANCEL_SUPERSEDED", "true") == "true",
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	switch len(cfg.Engine.PreviewTokenKey) {
	case 16, 24, 32:
	default:
		return nil, errors.New("preview token key must be 16, 24 or 32 bytes")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
