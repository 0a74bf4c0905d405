package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/efortin/cronjob-scheduler/pkg/operation"
	"github.com/efortin/cronjob-scheduler/pkg/rbac"
	"github.com/efortin/cronjob-scheduler/pkg/stats"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port   string
	verify bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler HTTP API",
		Long: `Start the HTTP API exposing the scheduler:

- POST   /schedules         create a schedule
- GET    /schedules         list schedules (?taskDefinitionName= to filter)
- DELETE /schedules/:name   delete a schedule
- GET    /health            liveness
- GET    /metrics           Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.connect()
			if err != nil {
				return err
			}
			config := b.config
			if opts.verify {
				if err := rbac.VerifyCronJobAPI(cmd.Context(), b.clients.Clientset.Discovery(), config.APIVersion); err != nil {
					return err
				}
				if err := rbac.VerifyPermissions(cmd.Context(), b.clients.Clientset, config.Namespace); err != nil {
					return err
				}
			}

			gin.SetMode(gin.ReleaseMode)
			instrumented := stats.NewInstrumentedScheduler(b.scheduler, stats.NewMetricsRecorder())
			router := operation.NewRouter(operation.NewGinHandler(instrumented, root.logger), root.logger)

			ln, err := net.Listen("tcp", ":"+opts.port)
			if err != nil {
				return err
			}

			root.logger.Info().
				Str("addr", ln.Addr().String()).
				Str("namespace", config.Namespace).
				Str("api_version", config.APIVersion).
				Msg("starting cronjob-scheduler API")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveHTTP(ctx, ln, router, root.logger)
		},
	}

	cmd.Flags().StringVar(&opts.port, "port", getEnvOrDefault("PORT", "8080"), "HTTP server port")
	cmd.Flags().BoolVar(&opts.verify, "verify", true, "Check API availability and RBAC permissions before serving")

	return cmd
}

// serveHTTP serves handler on ln until ctx is done, then drains in-flight requests
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
