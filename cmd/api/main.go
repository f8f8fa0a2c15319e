package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/userhub/internal/auth"
	"github.com/carebridge/userhub/internal/config"
	"github.com/carebridge/userhub/internal/db"
	httpx "github.com/carebridge/userhub/internal/http"
	"github.com/carebridge/userhub/internal/http/handlers"
	"github.com/carebridge/userhub/internal/observability"
	"github.com/carebridge/userhub/internal/ratelimit"
	"github.com/carebridge/userhub/internal/store"
	"github.com/carebridge/userhub/internal/store/jsonstore"
	"github.com/carebridge/userhub/internal/store/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecretGenerated {
		// sessions will not survive a restart with an ephemeral secret
		log.Warn("JWT secret was generated for this boot; set JWT_SECRET or JWT_SECRET_FILE for stable sessions")
	}

	// tracing is optional; skipped entirely when no collector is configured
	tracing := false
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "userhub", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			tracing = true
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// store backend: postgres when configured, JSON file otherwise
	var (
		userStore store.UserStore
		pool      *pgxpool.Pool
		ready     []handlers.ReadyCheck
	)

	if cfg.DBURL != "" {
		p, err := db.NewPool(cfg.DBURL)
		if err != nil {
			log.Error("postgres connect failed", "err", err)
			os.Exit(1)
		}
		pool = p
		defer pool.Close()

		userStore = postgres.New(pool)
		ready = append(ready, handlers.ReadyCheck{
			Name:  "postgres",
			Check: pool.Ping,
		})
		log.Info("user store backend", "backend", "postgres")
	} else {
		js, err := jsonstore.Open(cfg.StorePath, log)
		if err != nil {
			log.Error("json store open failed", "err", err, "path", cfg.StorePath)
			os.Exit(1)
		}
		userStore = js
		log.Info("user store backend", "backend", "json", "path", cfg.StorePath)
	}

	userStore = store.WithMetrics(userStore, prom)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		ctx, cancel := config.WithTimeout(10 * time.Second)
		err := store.EnsureAdminUser(ctx, userStore, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		cancel()
		if err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authSvc := auth.NewService(userStore, tokens, log, prom)

	// login/register rate limiting: shared counters via redis when
	// available, in-process otherwise
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rl := ratelimit.NewRedis(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.LoginRateLimit, cfg.LoginRateWindow)
		defer rl.Close()

		limiter = rl
		ready = append(ready, handlers.ReadyCheck{Name: "redis", Check: rl.Ping})
		log.Info("rate limiter backend", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		limiter = ratelimit.NewMemory(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	// the authenticated surface gets its own per-user limiter; sharing the
	// login limiter would mix both surfaces' counters under the login limit
	apiLimiter := ratelimit.NewMemory(cfg.APIRateLimit, cfg.APIRateWindow)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:        cfg,
		Log:        log,
		Store:      userStore,
		Auth:       authSvc,
		Authz:      authSvc,
		Limiter:    limiter,
		APILimiter: apiLimiter,
		Prom:       prom,
		Ready:      ready,
		Tracing:    tracing,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
