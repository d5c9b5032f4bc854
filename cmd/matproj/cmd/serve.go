package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/matproj/internal/logger"
	"github.com/kailas-cloud/matproj/internal/metrics"
	chiTransport "github.com/kailas-cloud/matproj/internal/transport/chi"
	"github.com/kailas-cloud/matproj/internal/version"
)

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fixture documents over the Materials Project wire format",
		Long: `Serve category documents from the built-in fixtures, or from a directory of
JSON/YAML fixture files, with the query semantics of the Materials Project API.

Examples:
  # Built-in fixtures on :8080, no authentication
  matproj serve

  # Own fixtures, requiring an API key
  matproj serve --fixtures ./fixtures --server-api-key secret --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.Int("port", 0, "Listen port (default 8080)")
	f.String("fixtures", "", "Fixture directory (default: built-in fixtures)")
	f.StringSlice("server-api-key", nil, "Accepted X-API-KEY values (default: no authentication)")
	f.String("db-version", "", "Database version reported by /heartbeat")
	_ = o.v.BindPFlag("server.port", f.Lookup("port"))
	_ = o.v.BindPFlag("server.fixtures_dir", f.Lookup("fixtures"))
	_ = o.v.BindPFlag("server.api_keys", f.Lookup("server-api-key"))
	_ = o.v.BindPFlag("server.db_version", f.Lookup("db-version"))
	return cmd
}

func runServe(ctx context.Context, o *options) error {
	cfg := o.cfg.Server
	logger := o.logger

	fixtures, err := loadFixtures(cfg.FixturesDir)
	if err != nil {
		return err
	}
	if err := metrics.RegisterServer(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var serverOpts []chiTransport.ServerOption
	if v := o.v.GetString("server.db_version"); v != "" {
		cfg.DBVersion = v
	}
	if cfg.DBVersion != "" {
		serverOpts = append(serverOpts, chiTransport.WithDBVersion(cfg.DBVersion))
	}
	server := chiTransport.NewServer(fixtures, logger, serverOpts...)
	handler := chiTransport.NewRouter(server, cfg.APIKeys, jsonRecoverer(logger), wideEventMiddleware(logger))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	logger.Info("Starting matproj fixture server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("addr", addr),
		zap.Strings("collections", fixtures.Suffixes()),
		zap.Bool("auth", len(cfg.APIKeys) > 0),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func loadFixtures(dir string) (*chiTransport.Fixtures, error) {
	if dir == "" {
		f, err := chiTransport.DefaultFixtures()
		if err != nil {
			return nil, fmt.Errorf("load built-in fixtures: %w", err)
		}
		return f, nil
	}
	f, err := chiTransport.LoadFixtures(dir)
	if err != nil {
		return nil, fmt.Errorf("load fixtures from %s: %w", dir, err)
	}
	return f, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
