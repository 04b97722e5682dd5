package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fjod/fitstore/internal/twin"
)

type TwinOptions struct {
	*RootOptions
	Port     string
	TokenTTL time.Duration
	NoSeed   bool
}

func NewTwinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TwinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "twin",
		Short: "Run an in-memory Fitcoin service for local development",
		Long: `Run an in-memory twin of the remote Fitcoin service with the same endpoints
and status codes. It is seeded with a small catalog and two accounts
(ana@example.com and luis@example.com, password "secret").

Example:
  fitstore twin --port 8090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Port != "" {
				opts.cfg.TwinPort = opts.Port
			}
			return runTwin(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides TWIN_PORT)")
	cmd.Flags().DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued bearer tokens")
	cmd.Flags().BoolVar(&opts.NoSeed, "no-seed", false, "start with an empty catalog and no accounts")
	return cmd
}

func newTwinServer(opts *TwinOptions) *twin.Server {
	mem := twin.NewMemoryStore()
	if !opts.NoSeed {
		twin.Seed(mem)
	}
	tokens := twin.NewTokenManager(opts.cfg.TwinSecret, opts.TokenTTL)
	return twin.NewServer(mem, tokens, opts.logger)
}

func runTwin(ctx context.Context, opts *TwinOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         ":" + opts.cfg.TwinPort,
		Handler:      newTwinServer(opts).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		opts.logger.Info("fitcoin twin starting", "port", opts.cfg.TwinPort, "seeded", !opts.NoSeed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("twin server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
