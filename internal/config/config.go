// Package config assembles the service configuration from the environment.
package config

import (
	"net/url"
	"time"

	"github.com/lildude/strengthboard/internal/env"
)

type Config struct {
	Env      string
	LogLevel string
	HTTP     httpConfig
	DB       dbConfig
	Redis    redisConfig
	Identity identityConfig
	Session  sessionConfig
}

type httpConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type dbConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type redisConfig struct {
	URL string
}

type identityConfig struct {
	SupabaseURL *url.URL
	AnonKey     string
	JWTSecret   string
	CacheTTL    time.Duration
	OwnerOpenID string
}

type sessionConfig struct {
	Key    string
	MaxAge time.Duration
}

func FromEnv() Config {
	return Config{
		Env:      env.String("ENV", "production"),
		LogLevel: env.String("LOG_LEVEL", "info"),
		HTTP: httpConfig{
			ListenAddr:      listenAddr(),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: dbConfig{
			URL:          env.String("DATABASE_URL", ""),
			MaxOpenConns: env.Int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: env.Int("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: redisConfig{
			URL: env.String("REDIS_URL", ""),
		},
		Identity: identityConfig{
			SupabaseURL: env.URL("SUPABASE_URL", nil),
			AnonKey:     env.String("SUPABASE_ANON_KEY", ""),
			JWTSecret:   env.String("SUPABASE_JWT_SECRET", ""),
			CacheTTL:    env.Duration("IDENTITY_CACHE_TTL", time.Minute),
			OwnerOpenID: env.String("OWNER_OPEN_ID", ""),
		},
		Session: sessionConfig{
			Key:    env.String("SESSION_KEY", ""),
			MaxAge: env.Duration("SESSION_MAX_AGE", 365*24*time.Hour),
		},
	}
}

// PORT wins over HTTP_LISTEN_ADDR so hosted platforms can inject it.
func listenAddr() string {
	if port := env.String("PORT", ""); port != "" {
		return ":" + port
	}
	return env.String("HTTP_LISTEN_ADDR", ":8080")
}
