// Package api serves the bitwire inspection API: decode and encode payloads
// with any registered schema, capture raw messages and look up where an
// inventory vector was seen.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes returns the HTTP handler with all routes configured
func (s *Server) Routes() http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/schemas", metrics.InstrumentHandler("GET", "/api/v1/schemas", s.handleSchemas))

		// Codec operations are read-only
		r.Post("/decode/{schema}", metrics.InstrumentHandler("POST", "/api/v1/decode/{schema}", s.handleDecode))
		r.Post("/encode/{schema}", metrics.InstrumentHandler("POST", "/api/v1/encode/{schema}", s.handleEncode))

		r.Get("/inventory/{type}/{hash}", metrics.InstrumentHandler("GET", "/api/v1/inventory/{type}/{hash}", s.handleInventory))

		// Capture writes to disk and requires the API key
		r.Group(func(r chi.Router) {
			r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
			r.Post("/capture/{command}", metrics.InstrumentHandler("POST", "/api/v1/capture/{command}", s.handleCapture))
		})
	})

	return r
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Serve listens on config.Addr() until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until ctx is cancelled
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", listener.Addr().String()).
			Str("metrics", fmt.Sprintf("http://%s/metrics", listener.Addr())).
			Msg("starting bitwire API server")
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
