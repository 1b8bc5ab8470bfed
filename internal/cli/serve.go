package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/internal/httpapi"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API over HTTP",
		Long: "Serve exposes every entity list over a JSON HTTP API, together with\n" +
			"/healthz and Prometheus /metrics, until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd)
		},
	}
	cmd.Flags().String(flagListen, "", fmt.Sprintf("listen address (default %q)", types.DefaultListenAddr))
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return a.withSession(ctx, func(s *admin.Session) error {
		srv := httpapi.New(s, httpapi.WithLogger(a.logger), httpapi.WithGatherer(reg))

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("listening", "addr", a.cfg.ListenAddr, "backend", a.cfg.Backend)
			errCh <- srv.Listen(a.cfg.ListenAddr)
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", a.cfg.ListenAddr)

		select {
		case err := <-errCh:
			return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}, admin.WithRegistry(reg))
}
