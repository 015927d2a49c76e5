package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/config"
	"github.com/danismanim/danismanim-backend/internal/events"
	httpapi "github.com/danismanim/danismanim-backend/internal/http"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/observability"
	"github.com/danismanim/danismanim-backend/internal/ratelimit"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
	"github.com/danismanim/danismanim-backend/internal/sysutil"
)

const (
	shutdownGrace   = 15 * time.Second
	janitorInterval = 10 * time.Minute
	redisKeyPrefix  = "danismanim:"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	gin.SetMode(cfg.GinMode)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, sysutil.ResolveVersion())
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := repo.Open(cfg.DBDriver, cfg.DBPath, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	infra, memStore, closeInfra := buildInfra(ctx, cfg, log.Logger)
	defer closeInfra()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, infra, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go janitor(ctx, db, services.NewAuthService(db, cfg.AdminSessionTTL), memStore)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Str("db", cfg.DBDriver).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

// buildInfra picks Redis-backed limiter and broker when REDIS_ADDR answers a
// ping, and in-process ones otherwise. The returned MemoryStore is nil when
// Redis is used.
func buildInfra(ctx context.Context, cfg config.Config, logger zerolog.Logger) (httpapi.Infra, *ratelimit.MemoryStore, func()) {
	infra := httpapi.Infra{Mailer: mailer.New(cfg.SMTP)}
	if cfg.SMTP.Host == "" {
		logger.Warn().Msg("SMTP_HOST not set: invitations and contact mails are logged, not sent")
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pctx).Err()
		cancel()
		if err == nil {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected: shared rate limits and chat events")
			infra.LimitStore = ratelimit.NewRedisStore(client, redisKeyPrefix+"rl:")
			rb := events.NewRedisBroker(client, redisKeyPrefix+"chat:")
			rb.OnDrop = func(events.Event) { observability.EventsDropped.Inc() }
			infra.Broker = rb
			return infra, nil, func() { _ = client.Close() }
		}
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, falling back to in-process limiter and broker")
		_ = client.Close()
	}

	store := ratelimit.NewMemoryStore()
	broker := events.NewMemoryBroker()
	broker.OnDrop = func(events.Event) { observability.EventsDropped.Inc() }
	infra.LimitStore = store
	infra.Broker = broker
	return infra, store, func() {}
}

// janitor drops expired admin sessions, idempotency records and limiter
// windows until ctx ends.
func janitor(ctx context.Context, db *gorm.DB, auth *services.AuthService, store *ratelimit.MemoryStore) {
	t := time.NewTicker(janitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		now := time.Now().UTC()
		if n, err := auth.PurgeExpired(ctx); err != nil {
			log.Warn().Err(err).Msg("purge sessions")
		} else if n > 0 {
			log.Debug().Int64("count", n).Msg("purged admin sessions")
		}
		if n, err := repo.PurgeIdempotency(ctx, db, now); err != nil {
			log.Warn().Err(err).Msg("purge idempotency")
		} else if n > 0 {
			log.Debug().Int64("count", n).Msg("purged idempotency records")
		}
		if store != nil {
			store.Sweep(now)
		}
	}
}
