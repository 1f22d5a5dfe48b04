package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Autoloads .env file to supply environment variables
	_ "github.com/joho/godotenv/autoload"

	"github.com/lildude/strengthboard/internal/athletes"
	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/cache"
	"github.com/lildude/strengthboard/internal/config"
	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/gyms"
	"github.com/lildude/strengthboard/internal/handlers/health"
	"github.com/lildude/strengthboard/internal/handlers/procedures"
	"github.com/lildude/strengthboard/internal/logger"
	"github.com/lildude/strengthboard/internal/middleware"
	"github.com/lildude/strengthboard/internal/router"
	"github.com/lildude/strengthboard/internal/rpc"
	"github.com/lildude/strengthboard/internal/sessions"
	"github.com/lildude/strengthboard/internal/supabase"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.FromEnv()
	log := logger.NewLogger(cfg.LogLevel)

	db, err := database.InitDB(database.Config{
		DSN:          cfg.DB.URL,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		log.WithError(err).Warn("database unavailable, serving empty results")
		db = nil
	}
	defer closeDB(db, log)
	store := database.New(db, log)

	provider, closeCache := identityProvider(ctx, cfg, log)
	defer closeCache()

	sess := sessions.New(cfg.Session.Key, cfg.Session.MaxAge)
	if sess == nil {
		log.Info("SESSION_KEY not set, session cookies disabled")
	}

	bridge := auth.NewBridge(
		auth.WithProvider(provider),
		auth.WithStore(store),
		auth.WithSessions(sess),
		auth.WithOwner(cfg.Identity.OwnerOpenID),
		auth.WithLogger(log),
	)

	procs := rpc.NewServer(log)
	procedures.Register(procs, procedures.Deps{
		Athletes: athletes.NewService(store, log),
		Gyms:     gyms.NewService(store, log),
		Sessions: sess,
		Identity: bridge,
	})

	r := router.New()
	r.Use(middleware.Recover(log), middleware.LogWith(log))
	r.HandleFunc("GET /{$}", indexHandler(log))
	r.HandleFunc("GET /api/health", health.Handler(log))

	trpc := r.SubRouter("/api/trpc")
	trpc.Use(middleware.Identify(bridge))
	trpc.Handle("/", procs)

	srv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// identityProvider picks local JWT verification when a secret is set, and
// the Supabase auth API otherwise. Verifications are cached in Redis when it
// is configured.
func identityProvider(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (auth.Provider, func()) {
	var p auth.Provider
	switch {
	case cfg.Identity.JWTSecret != "":
		p = supabase.NewJWTVerifier(cfg.Identity.JWTSecret)
	case cfg.Identity.SupabaseURL != nil:
		p = supabase.NewClient(cfg.Identity.SupabaseURL, cfg.Identity.AnonKey)
	default:
		log.Warn("no identity provider configured, all requests are anonymous")
		return nil, func() {}
	}

	if cfg.Redis.URL == "" {
		return p, func() {}
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, identity cache disabled")
		return p, func() {}
	}
	return auth.NewCachedProvider(p, rc, cfg.Identity.CacheTTL, log), func() {
		if err := rc.Close(); err != nil {
			log.WithError(err).Warn("closing redis")
		}
	}
}

func closeDB(db *gorm.DB, log logrus.FieldLogger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}

func indexHandler(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte("Strengthboard")); err != nil {
			log.WithError(err).Error("writing index")
		}
	}
}
