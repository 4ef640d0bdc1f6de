package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/config"
	"fintrack/internal/forms"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/render"
	"fintrack/internal/session"
	"fintrack/web"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var trustedProxies []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, trustedProxies)
		},
	}
	cmd.Flags().StringSliceVar(&trustedProxies, "trusted-proxy", nil,
		"CIDR of a reverse proxy whose X-Forwarded-For is trusted (repeatable)")

	return cmd
}

func serve(parent context.Context, cfg *config.Config, trustedProxies []string) error {
	logger := SetupLogger(cfg)
	collector := metrics.New()

	backend, err := api.NewClient(cfg.BackendURL, api.WithObserver(collector))
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	stores, err := session.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).
		CreateStore(parent, session.StoreConfig{
			Type:            session.StoreType(cfg.SessionStore),
			TTL:             cfg.SessionTTL,
			MaxEntries:      cfg.SessionMaxEntries,
			CleanupInterval: 5 * time.Minute,
			SQLiteDBPath:    cfg.SQLiteDBPath,
			Redis: session.RedisConfig{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			},
		})
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	collector.TrackSessions(func(ctx context.Context) (int64, error) {
		n, err := stores.Store.Count(ctx)
		return int64(n), err
	})

	controllerOpts := []forms.ControllerOption{forms.WithRecorder(collector)}
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			// Mutation events are optional; the front end works without them.
			logger.Warn("AMQP unavailable, mutation events disabled", log.FieldError, err)
		} else {
			controllerOpts = append(controllerOpts, forms.WithPublisher(events))
		}
	}

	views, err := render.New(web.TemplatesFS)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	resolver, err := security.NewResolver(trustedProxies...)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	limits := ratelimit.DefaultConfig()
	limits.RequestsPerMinute = cfg.RateLimitPerMinute

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Backend: backend,
		Sessions: session.NewManager(stores.Store, session.ManagerConfig{
			CookieName: cfg.SessionCookieName,
			Secure:     cfg.SessionCookieSecure,
			TTL:        cfg.SessionTTL,
		}),
		Guard:    session.NewGuard(backend, logger),
		Forms:    forms.NewController(logger, controllerOpts...),
		Views:    views,
		Static:   static,
		Metrics:  collector,
		Limiter:  ratelimit.NewLimiter(limits),
		ClientIP: resolver.ClientIP,
		Logger:   logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	runCtx, stop := context.WithCancel(parent)
	defer stop()
	ctx, done := GracefulShutdown(runCtx, logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Warn("Session store close error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting server",
		"addr", srv.Addr,
		"backend", cfg.BackendURL,
		"session_store", cfg.SessionStore)

	serveErr := srv.ListenAndServe()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, serveErr)
		stop()
	}

	<-ctx.Done()
	<-done
	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}
