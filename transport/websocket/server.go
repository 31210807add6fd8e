package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/auth"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type coordinator interface {
	OnConnect(userID, connectionID string) *usecase.ConnectResult
	OnReconnect(userID, connectionID string) *usecase.ConnectResult
	OnDisconnect(connectionID string)
	Challenge(fromConnectionID, toConnectionID string) error
	ChallengeAccepted(fromConnectionID, toConnectionID string) (*entity.GameView, error)
	ChallengeRefused(fromConnectionID, toConnectionID string) error
	Move(ctx context.Context, gameID string, row, col int, userID string) (*usecase.MoveResult, error)
	Logout(ctx context.Context, userID string) error
}

type authenticator interface {
	UserID(token string) (string, error)
}

type Options struct {
	// AllowAnonymous accepts connections without a token as spectators.
	AllowAnonymous    bool
	MessagesPerSecond float64
	Burst             int
	SendBuffer        int
}

type handlerFunc func(ctx context.Context, client *Client, message *Message) error

type Server struct {
	logger      *slog.Logger
	hub         *Hub
	coordinator coordinator
	auth        authenticator
	opts        Options
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, hub *Hub, coordinator coordinator, auth authenticator, opts Options) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		hub:         hub,
		coordinator: coordinator,
		auth:        auth,
		opts:        opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers["challenge"] = server.handleChallenge
	server.handlers["challenge:accept"] = server.handleChallengeAccept
	server.handlers["challenge:refuse"] = server.handleChallengeRefuse
	server.handlers["game:move"] = server.handleMove
	server.handlers["logout"] = server.handleLogout

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.ServeWS)
	return mux
}

// Start serves websocket connections on port until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		// hijacked connections are not tracked by the http server
		that.hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeWS authenticates the request, upgrades it and runs the connection until it closes.
func (that *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeWS")

	userID, err := that.authenticate(r)
	if err != nil {
		log.Info("rejected connection", "error", err)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, uuid.NewString(), userID, conn, that.opts)
	that.hub.Register(client)

	go client.writeLoop()

	if r.URL.Query().Get("reconnect") == "true" {
		that.coordinator.OnReconnect(userID, client.id)
	} else {
		that.coordinator.OnConnect(userID, client.id)
	}

	client.log().Info("websocket connection established")

	that.readLoop(r.Context(), client)
}

func (that *Server) authenticate(r *http.Request) (string, error) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		if that.opts.AllowAnonymous {
			return "", nil
		}
		return "", fmt.Errorf("missing token: %w", apperror.ErrUnauthorized)
	}

	return that.auth.UserID(token)
}

func (that *Server) readLoop(ctx context.Context, client *Client) {
	defer func() {
		that.hub.Unregister(client)
		that.coordinator.OnDisconnect(client.id)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.log().Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.sendError(client, "", fmt.Errorf("%w: %w", errInvalidPayload, err))
			continue
		}

		if !client.limiter.Allow() {
			that.sendError(client, message.Action, apperror.ErrRateLimited)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(client, message.Action, fmt.Errorf("unknown action %q", message.Action))
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			client.log().Debug("message not applied", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sendError(client *Client, action string, err error) {
	that.hub.Send(client.id, entity.Notification{
		Action:  entity.ActionError,
		Payload: entity.ErrorPayload{Action: action, Error: err.Error()},
	})
}
