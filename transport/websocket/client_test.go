package websocket

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_SetUser(t *testing.T) {
	t.Run("Logged out connection stops logging the user", func(t *testing.T) {
		// Given: a client bound to alice
		var buf bytes.Buffer
		client := newClient(slog.New(slog.NewTextHandler(&buf, nil)), "conn-a", "alice", nil, Options{SendBuffer: 1})
		client.log().Info("before")
		assert.Contains(t, buf.String(), "user_id=alice")
		assert.Equal(t, "alice", client.userID)

		// When: the user is cleared
		buf.Reset()
		client.setUser("")
		client.log().Info("after")

		// Then: later lines keep the connection id only
		assert.Empty(t, client.userID)
		assert.Contains(t, buf.String(), "connection_id=conn-a")
		assert.NotContains(t, buf.String(), "user_id")
	})
}
