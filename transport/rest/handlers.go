package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
)

type lobby interface {
	Presence() []entity.PresenceEntry
	UserSession(userID string) (*usecase.UserSession, error)
	Game(ctx context.Context, id string) (*entity.GameView, error)
	PlayTime(ctx context.Context, userID string) (time.Duration, error)
}

type handlers struct {
	logger *slog.Logger
	lobby  lobby
}

func newHandlers(logger *slog.Logger, lobby lobby) *handlers {
	return &handlers{
		logger: logger.With("component", "rest"),
		lobby:  lobby,
	}
}

type presenceResponse struct {
	Users []entity.PresenceEntry `json:"users"`
}

type userSessionResponse struct {
	UserID          string                  `json:"userId"`
	Status          entity.ConnectionStatus `json:"status"`
	SessionDuration string                  `json:"sessionDuration"`
	SessionSeconds  float64                 `json:"sessionSeconds"`
}

type playTimeResponse struct {
	UserID       string  `json:"userId"`
	PlayTime     string  `json:"playTime"`
	PlayTimeSecs float64 `json:"playTimeSeconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) listPresence(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, presenceResponse{Users: that.lobby.Presence()})
}

func (that *handlers) getUserSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.lobby.UserSession(chi.URLParam(r, "userId"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, userSessionResponse{
		UserID:          session.UserID,
		Status:          session.Status,
		SessionDuration: session.SessionDuration.String(),
		SessionSeconds:  session.SessionDuration.Seconds(),
	})
}

func (that *handlers) getPlayTime(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	total, err := that.lobby.PlayTime(r.Context(), userID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, playTimeResponse{
		UserID:       userID,
		PlayTime:     total.String(),
		PlayTimeSecs: total.Seconds(),
	})
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.lobby.Game(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrUserNotFound), errors.Is(err, apperror.ErrGameNotFound):
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		that.logger.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
