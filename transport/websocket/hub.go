package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// Hub tracks live clients and the broadcast groups they belong to.
// Delivery is fire and forget: a client with a full queue loses the message.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (that *Hub) Register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.id] = client
}

// Unregister removes client from the hub and its groups and closes its queue.
func (that *Hub) Unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[client.id]; !ok || current != client {
		return
	}

	delete(that.clients, client.id)
	close(client.send)

	for name, members := range that.groups {
		delete(members, client.id)
		if len(members) == 0 {
			delete(that.groups, name)
		}
	}
}

// Close unregisters every client, which makes their write loops close the connections.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, client := range that.clients {
		close(client.send)
		delete(that.clients, id)
	}
	that.groups = make(map[string]map[string]struct{})
}

// JoinGroup adds a registered connection to group.
func (that *Hub) JoinGroup(group, connectionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[connectionID]; !ok {
		that.logger.Debug("unknown connection not added to group", "group", group, "connection_id", connectionID)
		return
	}

	members, ok := that.groups[group]
	if !ok {
		members = make(map[string]struct{})
		that.groups[group] = members
	}
	members[connectionID] = struct{}{}
}

func (that *Hub) GroupMembers(group string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	members := make([]string, 0, len(that.groups[group]))
	for id := range that.groups[group] {
		members = append(members, id)
	}
	return members
}

func (that *Hub) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

func (that *Hub) Send(connectionID string, notification entity.Notification) {
	data, ok := that.encode(notification)
	if !ok {
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	client, ok := that.clients[connectionID]
	if !ok {
		that.logger.Debug("dropping message for unknown connection", "connection_id", connectionID, "action", notification.Action)
		return
	}

	that.deliver(client, notification.Action, data)
}

func (that *Hub) SendGroup(group string, notification entity.Notification) {
	data, ok := that.encode(notification)
	if !ok {
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for id := range that.groups[group] {
		that.deliver(that.clients[id], notification.Action, data)
	}
}

func (that *Hub) SendAll(notification entity.Notification) {
	that.SendOthers("", notification)
}

// SendOthers delivers to every client except connectionID.
func (that *Hub) SendOthers(connectionID string, notification entity.Notification) {
	data, ok := that.encode(notification)
	if !ok {
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for id, client := range that.clients {
		if id != connectionID {
			that.deliver(client, notification.Action, data)
		}
	}
}

func (that *Hub) encode(notification entity.Notification) ([]byte, bool) {
	data, err := encodeNotification(notification)
	if err != nil {
		that.logger.Error("failed to encode notification", "action", notification.Action, "error", err)
		return nil, false
	}
	return data, true
}

// deliver must be called with that.mu held.
func (that *Hub) deliver(client *Client, action string, data []byte) {
	if !client.enqueue(data) {
		that.logger.Warn("send queue full, message dropped", "connection_id", client.id, "action", action)
	}
}
