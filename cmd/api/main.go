package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tarushsinha/ATHOS/internal/api"
	"github.com/tarushsinha/ATHOS/internal/auth"
	"github.com/tarushsinha/ATHOS/internal/config"
	"github.com/tarushsinha/ATHOS/internal/db"
	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
	"github.com/tarushsinha/ATHOS/internal/logging"
	"github.com/tarushsinha/ATHOS/internal/persistence/memory"
	"github.com/tarushsinha/ATHOS/internal/persistence/postgres"
	httptransport "github.com/tarushsinha/ATHOS/internal/transport/http"
)

type store interface {
	domain.WorkoutStore
	identity.UserStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	hostname, _ := os.Hostname()
	if sentryEnabled := logging.Setup(logging.SetupParams{
		LogFileName:      cfg.LogFile,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: hostname,
	}); sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var st store
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warnln("using in-memory storage, data is lost on exit")
		st = memory.NewSeededStore()
	default:
		pool, err := db.NewPool(ctx, db.NewPoolParams{URL: cfg.PostgresURL, TracingEnabled: cfg.TracingEnabled})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %s", err)
		}
		defer pool.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Fatalf("failed to ping postgres: %s", err)
		}
		if err := db.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, pool.Config().ConnConfig.Database); err != nil {
			log.Errorf("pool metrics: %s", err)
		}
		st = postgres.NewRepository(pool)
	}

	authCfg := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.TokenTTL}
	handler := api.NewHandler(
		domain.NewService(st),
		identity.NewService(st, auth.NewIssuer(authCfg), cfg.BcryptCost),
	)
	router := api.NewRouter(api.RouterParams{
		Handler:        handler,
		Auth:           authCfg,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        promhttp.Handler(),
		TracingEnabled: cfg.TracingEnabled,
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, router)

	if err := httptransport.Serve(ctx, server, cfg.ShutdownTimeout); err != nil {
		log.Errorf("server error: %s", err)
		return
	}
	log.Infoln("athos stopped")
}
