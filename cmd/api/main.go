package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bitminerobotics/platform/internal/auth"
	"github.com/bitminerobotics/platform/internal/config"
	"github.com/bitminerobotics/platform/internal/db"
	"github.com/bitminerobotics/platform/internal/db/migrations"
	httpx "github.com/bitminerobotics/platform/internal/http"
	"github.com/bitminerobotics/platform/internal/http/handlers"
	"github.com/bitminerobotics/platform/internal/notifications"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/bitminerobotics/platform/internal/ratelimit"
	"github.com/bitminerobotics/platform/internal/redisclient"
	"github.com/bitminerobotics/platform/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "bitmine-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTLPSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		migrator, err := db.OpenMigrator(ctx, cfg.DBURL, migrations.FS, log)
		if err != nil {
			log.Error("load migrations failed", "err", err)
			os.Exit(1)
		}

		n, err := migrator.Up(ctx)
		_ = migrator.Close()
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "count", n)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)

	err = db.EnsureAdminUser(ctx, users, db.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	health := []handlers.HealthCheck{{Name: "postgres", Check: pool.Ping}}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis config invalid", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		limiter = ratelimit.NewRedisLimiter(rdb.Raw(), "bitmine:ratelimit", cfg.RateLimitPerMinute, time.Minute)
		health = append(health, handlers.HealthCheck{Name: "redis", Check: rdb.Ping})
	}

	var notifier notifications.Notifier = notifications.NewLogNotifier(log)
	if cfg.SendGridAPIKey != "" {
		notifier = notifications.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.NewsletterFrom, 5, 5)
	}
	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{Logger: log})

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Categories: postgres.NewCategoriesRepo(pool, prom),
		Products:   postgres.NewProductsRepo(pool, prom),
		Orders:     postgres.NewOrdersRepo(pool, prom),
		Users:      users,
		Sessions:   postgres.NewRefreshTokensRepo(pool, prom),
		JWT:        auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Notifier:   notifier,
		Limiter:    limiter,
		Health:     health,
		Prom:       prom,
		Gatherer:   reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

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
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
