package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// NewRouter builds the inspection API next to the health and metrics endpoints.
func NewRouter(logger *slog.Logger, lobby lobby, gatherer prometheus.Gatherer) http.Handler {
	h := newHandlers(logger, lobby)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(newLoggingMiddleware(logger))

	r.Get("/ping", pingHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Get("/presence", h.listPresence)
		r.Get("/presence/{userId}", h.getUserSession)
		r.Get("/users/{userId}/playtime", h.getPlayTime)
		r.Get("/games/{gameId}", h.getGame)
	})

	return r
}

// Start serves handler on port until ctx is canceled.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
