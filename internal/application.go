package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/auth"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/config"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-lobby/transport/rest"
	"github.com/rocketscienceinc/tictactoe-lobby/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	hub := websocket.NewHub(logger)
	coordinator := usecase.NewCoordinator(
		logger,
		repository.NewPresenceRegistry(nil),
		repository.NewGameRegistry(),
		hub,
		repository.NewGameArchive(redisStorage, conf.Game.ArchiveTTL),
		repository.NewPlayTimeRepository(redisStorage),
		collector,
		usecase.Options{AutoCreateUnknownGames: conf.Game.AutoCreateUnknown},
	)

	authenticator := auth.NewAuthenticator(conf.Auth.JWTSecret, conf.Auth.Issuer, conf.Auth.Audience)
	wsServer := websocket.New(logger, hub, coordinator, authenticator, websocket.Options{
		AllowAnonymous:    conf.Auth.AllowAnonymous,
		MessagesPerSecond: conf.Socket.MessagesPerSecond,
		Burst:             conf.Socket.Burst,
		SendBuffer:        conf.Socket.SendBuffer,
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(logger, coordinator, registry)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
