package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fjod/fitstore/internal/cache"
	"github.com/fjod/fitstore/internal/catalog"
	"github.com/fjod/fitstore/internal/checkout"
	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/config"
	"github.com/fjod/fitstore/internal/consumer"
	h "github.com/fjod/fitstore/internal/http"
	"github.com/fjod/fitstore/internal/publisher"
	"github.com/fjod/fitstore/internal/receipt"
	"github.com/fjod/fitstore/internal/repository"
	"github.com/fjod/fitstore/internal/session"
	"github.com/fjod/fitstore/internal/store"
)

type ServeOptions struct {
	*RootOptions
	Port string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		Long: `Run the storefront: catalog, cart, filters, checkout and receipts over a
JSON HTTP API, backed by the remote Fitcoin service at API_BASE_URL.

Example:
  fitstore serve --port 8080
  API_BASE_URL=http://localhost:8090 fitstore serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Port != "" {
				opts.cfg.HTTPPort = opts.Port
			}
			return runServe(cmd.Context(), opts.cfg, opts.logger)
		},
	}
	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides HTTP_PORT)")
	return cmd
}

// storefront is the wired process: every component and the resources that
// must be released on shutdown.
type storefront struct {
	handler   http.Handler
	sessions  *session.Manager
	repo      *repository.Repository
	redis     *redis.Client
	publisher *publisher.OutboxPoller
	consumer  *consumer.RedemptionConsumer
}

func newStorefront(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storefront, error) {
	repo, err := openRepository(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	sf := &storefront{repo: repo}

	api := client.New(cfg.APIBaseURL, cfg.RequestTimeout, client.WithLogger(logger))
	sf.sessions = session.NewManager(api, repo, logger)
	api.OnUnauthorized(sf.sessions.HandleUnauthorized)
	if sess, err := sf.sessions.Restore(ctx); err != nil {
		logger.WarnContext(ctx, "could not restore session", "error", err)
	} else if sess != nil {
		logger.InfoContext(ctx, "session restored", "user_id", sess.User.ID)
	}

	catalogCache, rdb, err := newCatalogCache(ctx, cfg)
	if err != nil {
		sf.Close()
		return nil, err
	}
	sf.redis = rdb
	source := catalog.NewSource(api, catalogCache, cfg.CatalogLimit, logger)

	cart := store.New(sf.sessions, cfg.GuestBalance)
	renderer := receipt.NewRenderer(time.Local)
	service := checkout.NewService(api, sf.sessions, cart, logger,
		checkout.WithRecorder(repo),
		checkout.WithExporter(receipt.NewExporter(cfg.ReceiptDir, renderer)),
	)

	if len(cfg.KafkaBrokers) > 0 {
		sf.publisher = publisher.NewOutboxPoller(repo, logger, cfg.KafkaTopic, cfg.KafkaBrokers...)
		sf.consumer = consumer.NewRedemptionConsumer(source, logger, cfg.KafkaTopic, consumer.DefaultGroupID, cfg.KafkaBrokers...)
	}

	sf.handler = h.NewRouter(h.RouterConfig{
		Catalog:        h.NewCatalogHandler(source, cart, cfg.RequestTimeout),
		Cart:           h.NewCartHandler(cart, source, cfg.RequestTimeout),
		Checkout:       h.NewCheckoutHandler(service, cart, repo, renderer, cfg.RequestTimeout),
		Session:        h.NewSessionHandler(sf.sessions, service, cfg.RequestTimeout),
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	return sf, nil
}

func (sf *storefront) Close() error {
	var errs []error
	if sf.consumer != nil {
		errs = append(errs, sf.consumer.Close())
	}
	if sf.publisher != nil {
		errs = append(errs, sf.publisher.Close())
	}
	if sf.redis != nil {
		errs = append(errs, sf.redis.Close())
	}
	errs = append(errs, sf.repo.Close())
	return errors.Join(errs...)
}

func openRepository(path string) (*repository.Repository, error) {
	repo, err := repository.NewRepository(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if err := repo.RunMigrations(); err != nil {
		repo.Close()
		return nil, WrapExitError(ExitCommandError, "failed to run migrations", err)
	}
	return repo, nil
}

// newCatalogCache returns the Redis cache when REDIS_ADDR is set and a no-op
// cache otherwise.
func newCatalogCache(ctx context.Context, cfg *config.Config) (cache.CatalogCache, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		return cache.Nop{}, nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, WrapExitError(ExitCommandError, "redis connection failed", err)
	}
	return cache.NewRedisCache(rdb, cfg.CatalogCacheTTL), rdb, nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sf, err := newStorefront(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sf.Close(); err != nil {
			logger.Error("error releasing resources", "error", err)
		}
	}()

	if sf.publisher != nil {
		go sf.publisher.Run(ctx)
		go sf.consumer.Run(ctx)
		logger.Info("publishing redemptions", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      sf.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront starting", "port", cfg.HTTPPort, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
