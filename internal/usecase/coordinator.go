package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

type presenceRegistry interface {
	ConnectOrReconnect(userID, connectionID string, status entity.ConnectionStatus) *entity.UserIdentity
	Disconnect(connectionID string) (*entity.UserIdentity, bool)
	Logout(userID string) (*entity.UserIdentity, error)
	ListAll() []entity.PresenceEntry
	SessionDuration(userID string) (time.Duration, error)
	GetByID(userID string) (*entity.UserIdentity, error)
	GetByConnectionID(connectionID string) (*entity.UserIdentity, error)
	SetStatus(userID string, status entity.ConnectionStatus) error
	CountOnline() int
}

type gameRegistry interface {
	GetOrCreate(id string) *entity.Game
	GetByID(id string) (*entity.Game, error)
	Create(playerA, playerB *entity.UserIdentity) *entity.Game
	FindActiveGameForUser(userID string) (*entity.Game, bool)
}

// Notifier delivers notifications to live connections. Calls must not block.
type Notifier interface {
	Send(connectionID string, notification entity.Notification)
	SendGroup(group string, notification entity.Notification)
	SendAll(notification entity.Notification)
	SendOthers(connectionID string, notification entity.Notification)
	JoinGroup(group, connectionID string)
}

type gameArchive interface {
	Save(ctx context.Context, game *entity.GameView) error
	GetByID(ctx context.Context, id string) (*entity.GameView, error)
}

type playTimeRepo interface {
	Add(ctx context.Context, userID string, duration time.Duration) error
	Get(ctx context.Context, userID string) (time.Duration, error)
}

type metricsCollector interface {
	RecordConnect()
	RecordDisconnect()
	SetOnlineUsers(count int)
	RecordGameStarted()
	RecordMoveApplied()
	RecordMoveRejected(reason string)
	RecordGameFinished(outcome string)
	ObserveSessionDuration(duration time.Duration)
}

type Options struct {
	// AutoCreateUnknownGames stores an empty game when a move names an unknown id
	// instead of rejecting it with apperror.ErrGameNotFound.
	AutoCreateUnknownGames bool
	Now                    func() time.Time
}

// Coordinator drives the lobby and game state machine for every connection.
// A single mutex covers both registries so that match finding and move
// application observe one consistent snapshot.
type Coordinator struct {
	logger *slog.Logger
	mu     sync.Mutex

	presence presenceRegistry
	games    gameRegistry
	notifier Notifier
	archive  gameArchive
	playTime playTimeRepo
	metrics  metricsCollector

	autoCreate bool
	now        func() time.Time
}

func NewCoordinator(
	logger *slog.Logger,
	presence presenceRegistry,
	games gameRegistry,
	notifier Notifier,
	archive gameArchive,
	playTime playTimeRepo,
	metrics metricsCollector,
	opts Options,
) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		logger:     logger.With("component", "coordinator"),
		presence:   presence,
		games:      games,
		notifier:   notifier,
		archive:    archive,
		playTime:   playTime,
		metrics:    metrics,
		autoCreate: opts.AutoCreateUnknownGames,
		now:        now,
	}
}

// ConnectResult is the view handed to a freshly connected client.
type ConnectResult struct {
	User  *entity.PresenceEntry
	Users []entity.PresenceEntry
	Game  *entity.GameView
}

// OnConnect registers a new connection. An empty userID is an anonymous
// spectator: it gets the lobby view but is not tracked in presence.
func (that *Coordinator) OnConnect(userID, connectionID string) *ConnectResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.metrics.RecordConnect()

	if userID == "" {
		return that.connectAnonymous(connectionID)
	}

	return that.connect(userID, connectionID, entity.StatusConnected)
}

// OnReconnect runs the connect flow for a returning client and announces it to everyone.
func (that *Coordinator) OnReconnect(userID, connectionID string) *ConnectResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.metrics.RecordConnect()

	if userID == "" {
		return that.connectAnonymous(connectionID)
	}

	result := that.connect(userID, connectionID, entity.StatusRefreshed)
	that.notifier.SendAll(entity.Notification{
		Action:  entity.ActionRejoined,
		Payload: entity.RejoinedPayload{UserID: userID},
	})

	return result
}

func (that *Coordinator) connectAnonymous(connectionID string) *ConnectResult {
	users := that.presence.ListAll()
	that.notifier.Send(connectionID, entity.Notification{
		Action:  entity.ActionUpdateSelf,
		Payload: entity.UpdateSelfPayload{Users: users},
	})

	return &ConnectResult{Users: users}
}

// connect must be called with that.mu held.
func (that *Coordinator) connect(userID, connectionID string, status entity.ConnectionStatus) *ConnectResult {
	log := that.logger.With("method", "connect", "user_id", userID, "connection_id", connectionID)

	user := that.presence.ConnectOrReconnect(userID, connectionID, status)
	that.metrics.SetOnlineUsers(that.presence.CountOnline())

	if game, ok := that.activeGame(userID); ok {
		log.Info("rejoining game in progress", "game_id", game.ID)

		// A user that logged out mid-game comes back as a new identity.
		game.ReplacePlayer(user)

		that.setStatus(userID, entity.StatusPlaying)
		that.notifier.JoinGroup(game.ID, connectionID)

		users := that.presence.ListAll()
		view := game.View()
		that.notifier.SendGroup(game.ID, entity.Notification{
			Action:  entity.ActionRejoinGame,
			Payload: entity.RejoinGamePayload{Users: users, UserID: userID, Game: view},
		})

		entry := user.Presence()
		that.announceJoined(connectionID, entry)

		return &ConnectResult{User: &entry, Users: users, Game: &view}
	}

	log.Info("user connected")

	users := excludeUser(that.presence.ListAll(), userID)
	that.notifier.Send(connectionID, entity.Notification{
		Action:  entity.ActionUpdateSelf,
		Payload: entity.UpdateSelfPayload{Users: users, UserID: userID},
	})

	entry := user.Presence()
	that.announceJoined(connectionID, entry)

	return &ConnectResult{User: &entry, Users: users}
}

func (that *Coordinator) announceJoined(connectionID string, entry entity.PresenceEntry) {
	that.notifier.SendOthers(connectionID, entity.Notification{
		Action:  entity.ActionJoined,
		Payload: entity.JoinedPayload{User: entry, Timestamp: that.now()},
	})
}

// OnDisconnect closes the session bound to connectionID and broadcasts leave.
// Identities and games are kept so the user can rejoin later.
func (that *Coordinator) OnDisconnect(connectionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "OnDisconnect", "connection_id", connectionID)

	that.metrics.RecordDisconnect()

	if user, ok := that.presence.Disconnect(connectionID); ok {
		log.Info("user disconnected", "user_id", user.ID)
		that.metrics.SetOnlineUsers(that.presence.CountOnline())
	} else {
		log.Debug("connection had no open session")
	}

	that.notifier.SendAll(entity.Notification{
		Action:  entity.ActionLeave,
		Payload: entity.LeavePayload{ConnectionID: connectionID, Timestamp: that.now()},
	})
}

// Logout forgets userID and records the time it spent connected.
func (that *Coordinator) Logout(ctx context.Context, userID string) error {
	log := that.logger.With("method", "Logout", "user_id", userID)

	if userID == "" {
		return apperror.ErrAnonymous
	}

	duration, err := that.logout(userID)
	if err != nil {
		return err
	}

	log.Info("user logged out", "session_duration", duration)

	if err = that.playTime.Add(ctx, userID, duration); err != nil {
		log.Error("failed to record play time", "error", err)
	}

	return nil
}

func (that *Coordinator) logout(userID string) (time.Duration, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, err := that.presence.Logout(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to logout: %w", err)
	}

	now := that.now()
	duration := user.SessionDuration(now)

	that.metrics.ObserveSessionDuration(duration)
	that.metrics.SetOnlineUsers(that.presence.CountOnline())

	that.notifier.SendAll(entity.Notification{
		Action:  entity.ActionLeave,
		Payload: entity.LeavePayload{ConnectionID: user.LatestConnectionID(), Timestamp: now},
	})

	return duration, nil
}

// Presence returns the lobby snapshot.
func (that *Coordinator) Presence() []entity.PresenceEntry {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.presence.ListAll()
}

type UserSession struct {
	UserID          string
	Status          entity.ConnectionStatus
	SessionDuration time.Duration
}

func (that *Coordinator) UserSession(userID string) (*UserSession, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, err := that.presence.GetByID(userID)
	if err != nil {
		return nil, err
	}

	duration, err := that.presence.SessionDuration(userID)
	if err != nil {
		return nil, err
	}

	return &UserSession{
		UserID:          user.ID,
		Status:          user.Status,
		SessionDuration: duration,
	}, nil
}

// Game returns the live game with id, falling back to the archive of finished games.
func (that *Coordinator) Game(ctx context.Context, id string) (*entity.GameView, error) {
	if view, ok := that.liveGame(id); ok {
		return view, nil
	}

	view, err := that.archive.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return view, nil
}

func (that *Coordinator) liveGame(id string) (*entity.GameView, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.games.GetByID(id)
	if err != nil {
		return nil, false
	}

	view := game.View()
	return &view, true
}

// PlayTime returns the connected time accumulated by userID over past logouts.
func (that *Coordinator) PlayTime(ctx context.Context, userID string) (time.Duration, error) {
	duration, err := that.playTime.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get play time: %w", err)
	}

	return duration, nil
}

// setStatus must be called with that.mu held.
// activeGame returns the latest game of userID if it is still in progress.
func (that *Coordinator) activeGame(userID string) (*entity.Game, bool) {
	game, ok := that.games.FindActiveGameForUser(userID)
	if !ok || !game.IsInProgress() {
		return nil, false
	}
	return game, true
}

func (that *Coordinator) setStatus(userID string, status entity.ConnectionStatus) {
	if err := that.presence.SetStatus(userID, status); err != nil {
		that.logger.Debug("status not updated", "user_id", userID, "error", err)
	}
}

func excludeUser(entries []entity.PresenceEntry, userID string) []entity.PresenceEntry {
	result := make([]entity.PresenceEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID != userID {
			result = append(result, entry)
		}
	}
	return result
}
