package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "ordersvc/docs"
	"ordersvc/pkg/api"
	"ordersvc/pkg/config"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/mailer"
	"ordersvc/pkg/metrics"
	"ordersvc/pkg/notify"
	"ordersvc/pkg/orchestrator"
	"ordersvc/pkg/order"
	"ordersvc/pkg/order/memory"
	pg "ordersvc/pkg/order/postgres"
	rds "ordersvc/pkg/order/redis"
	"ordersvc/pkg/otel"
	"ordersvc/pkg/user"
)

const serviceName = "ordersvc"

// @title Order Service API
// @version 1.0
// @description Creates orders for validated users and notifies the store staff.
// @host localhost:8443
// @BasePath /
func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logger.LevelInfo
	}
	log := logger.New(os.Stdout, level, serviceName, otel.GetTraceID)
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		log.Error(context.Background(), "startup", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.Tracing.Host,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())
	tracer := tp.Tracer(serviceName)

	repo, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer closeStore()
	log.Info(ctx, "store ready", "driver", cfg.Store.Driver)

	users := user.New(log, user.Config{
		BaseURL:         cfg.UserService.URL,
		Timeout:         cfg.UserService.Timeout(),
		MaxAttempts:     cfg.UserService.MaxAttempts,
		Backoff:         cfg.UserService.Backoff(),
		BreakerFailures: cfg.UserService.BreakerFailures,
	}, nil)

	dispatcher := notify.New(log, mailer.New(log, cfg.Mailer.URL, cfg.Mailer.Timeout(), nil), notify.Config{
		Enabled:        cfg.Mailer.SendMails,
		ManagerAddress: cfg.Mailer.ManagerEmail,
		AdminAddress:   cfg.Mailer.AdminEmail,
	})

	m := metrics.New(prometheus.DefaultRegisterer)
	orch := orchestrator.New(log, users, repo, dispatcher, m)

	router := api.NewRouter(api.Config{
		Log:     log,
		Tracer:  tracer,
		Creator: orch,
		Reader:  repo,
		Metrics: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", srv.Addr, "tls", cfg.TLS())
		var err error
		if cfg.TLS() {
			err = srv.ListenAndServeTLS(cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutdown started")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info(context.Background(), "shutdown complete")
	return nil
}

// openStore connects the configured backend and returns a func releasing it.
func openStore(ctx context.Context, cfg config.Store) (order.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo := pg.New(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return rds.New(client, cfg.RedisPrefix), func() { client.Close() }, nil

	default:
		return memory.New(), func() {}, nil
	}
}
