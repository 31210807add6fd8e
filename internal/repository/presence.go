package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// PresenceRegistry owns every known UserIdentity. Identities are handed out by
// reference; callers mutate them only through the registry.
type PresenceRegistry struct {
	mu  sync.RWMutex
	now func() time.Time

	users map[string]*entity.UserIdentity
	order []string

	// connections indexes open sessions only: connection id -> user id.
	connections map[string]string
}

func NewPresenceRegistry(now func() time.Time) *PresenceRegistry {
	if now == nil {
		now = time.Now
	}

	return &PresenceRegistry{
		now:         now,
		users:       make(map[string]*entity.UserIdentity),
		connections: make(map[string]string),
	}
}

// ConnectOrReconnect opens a session for userID, creating the identity on first sight.
// A previously open session of the same user is closed first.
func (that *PresenceRegistry) ConnectOrReconnect(userID, connectionID string, status entity.ConnectionStatus) *entity.UserIdentity {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[userID]
	if !ok {
		user = entity.NewUserIdentity(userID)
		that.users[userID] = user
		that.order = append(that.order, userID)
	}

	if closed := user.OpenSession(connectionID, that.now()); closed != nil {
		delete(that.connections, closed.ConnectionID)
	}

	that.connections[connectionID] = userID
	user.Status = status

	return user
}

// Disconnect closes the open session bound to connectionID.
// Unknown or already closed connections are ignored.
func (that *PresenceRegistry) Disconnect(connectionID string) (*entity.UserIdentity, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	userID, ok := that.connections[connectionID]
	if !ok {
		return nil, false
	}
	delete(that.connections, connectionID)

	user := that.users[userID]
	if !user.CloseSession(connectionID, that.now()) {
		return nil, false
	}
	user.Status = entity.StatusDisconnected

	return user, true
}

// Logout closes the open session of userID and forgets the identity.
// The returned identity keeps its full session history.
func (that *PresenceRegistry) Logout(userID string) (*entity.UserIdentity, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[userID]
	if !ok {
		return nil, fmt.Errorf("logout %q: %w", userID, apperror.ErrUserNotFound)
	}

	if closed := user.CloseOpenSession(that.now()); closed != nil {
		delete(that.connections, closed.ConnectionID)
	}
	user.Status = entity.StatusDisconnected

	delete(that.users, userID)
	for i, id := range that.order {
		if id == userID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return user, nil
}

// ListAll returns a presence snapshot in identity insertion order.
func (that *PresenceRegistry) ListAll() []entity.PresenceEntry {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entries := make([]entity.PresenceEntry, 0, len(that.order))
	for _, id := range that.order {
		entries = append(entries, that.users[id].Presence())
	}

	return entries
}

func (that *PresenceRegistry) SessionDuration(userID string) (time.Duration, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	user, ok := that.users[userID]
	if !ok {
		return 0, fmt.Errorf("session duration %q: %w", userID, apperror.ErrUserNotFound)
	}

	return user.SessionDuration(that.now()), nil
}

func (that *PresenceRegistry) GetByID(userID string) (*entity.UserIdentity, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	user, ok := that.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", userID, apperror.ErrUserNotFound)
	}

	return user, nil
}

// GetByConnectionID resolves the owner of an open connection.
func (that *PresenceRegistry) GetByConnectionID(connectionID string) (*entity.UserIdentity, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	userID, ok := that.connections[connectionID]
	if !ok {
		return nil, fmt.Errorf("connection %q: %w", connectionID, apperror.ErrConnectionNotFound)
	}

	return that.users[userID], nil
}

func (that *PresenceRegistry) SetStatus(userID string, status entity.ConnectionStatus) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[userID]
	if !ok {
		return fmt.Errorf("user %q: %w", userID, apperror.ErrUserNotFound)
	}

	user.Status = status
	return nil
}

// CountOnline returns the number of users with an open session.
func (that *PresenceRegistry) CountOnline() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.connections)
}
