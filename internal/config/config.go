// Package config handles loading and validating runtime configuration for the
// Fantasy Football League API. Configuration is read from environment variables
// rather than being hardcoded, so the same binary can run in development,
// staging, and production — just swap the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port            string        // TCP port the HTTP server listens on (e.g. "8080")
	DatabaseURL     string        // PostgreSQL connection string
	JWTSecret       string        // Secret used to sign and verify access tokens (HS256)
	AccessTokenLife time.Duration // How long an issued access token stays valid
	CORSOrigins     []string      // Allowed CORS origins for browser clients
	Env             string        // "development", "staging", or "production"
}

// Load reads configuration from environment variables and returns a populated
// Config. A .env file is loaded first if present; its absence is fine in
// production where real environment variables are set by the platform.
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	tokenLife := time.Hour
	if v := os.Getenv("ACCESS_TOKEN_LIFE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			tokenLife = d
		}
	}

	var origins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Port:            port,
		DatabaseURL:     os.Getenv("DATABASE_URL"), // required — the server fails to start without it
		JWTSecret:       os.Getenv("JWT_SECRET"),   // required — tokens cannot be verified without it
		AccessTokenLife: tokenLife,
		CORSOrigins:     origins,
		Env:             env,
	}
}

// IsProduction reports whether the server runs in production mode. Error
// responses include cause details only outside production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
