package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/handlers"
	"github.com/lehigh-university-libraries/metgallery/internal/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the insight proxy and static gallery server",
		Long: `Starts the insight proxy on the specified port.

POST /api/gemini accepts {"prompt": "...", "objectID": 123} and returns
{"text": "..."} generated by the configured provider (Gemini by default).
Responses are cached in memory per artwork and prompt. Static assets for the
browser gallery are served from the configured static directory.`,
		Example: `  # Start server on default port 8888
  metgallery serve

  # Start server on custom port using a local Ollama model
  INSIGHT_PROVIDER=ollama metgallery serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			service, err := newProxyService(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
			handler := handlers.New(service, cfg.StaticDir)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(limiter.Middleware),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Insight proxy available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", cfg.Provider,
					"cache_ttl", cfg.CacheTTL,
					"cache_max_entries", cfg.CacheMaxEntries)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (overrides PORT)")

	return cmd
}
