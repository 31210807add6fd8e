package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIdentity_OpenSession(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Opening a session closes the previous open one", func(t *testing.T) {
		// Given: a user with one open session
		user := NewUserIdentity("alice")
		user.OpenSession("conn-1", start)

		// When: a new session is opened a minute later
		closed := user.OpenSession("conn-2", start.Add(time.Minute))

		// Then: the first one is closed and only the new one is open
		require.NotNil(t, closed)
		assert.Equal(t, "conn-1", closed.ConnectionID)
		assert.Equal(t, start.Add(time.Minute), closed.DisconnectedAt)
		assert.Equal(t, "conn-2", user.OpenSessionInfo().ConnectionID)
		assert.Equal(t, "conn-2", user.LatestConnectionID())
		assert.Len(t, user.Sessions, 2)
	})

	t.Run("CloseSession ignores connections that are not open", func(t *testing.T) {
		// Given: a user whose first session was replaced
		user := NewUserIdentity("alice")
		user.OpenSession("conn-1", start)
		user.OpenSession("conn-2", start.Add(time.Minute))

		// When: the stale connection disconnects
		closed := user.CloseSession("conn-1", start.Add(2*time.Minute))

		// Then: nothing changes
		assert.False(t, closed)
		assert.True(t, user.IsOnline())
	})
}

func TestUserIdentity_SessionDuration(t *testing.T) {
	// Given: one closed session of 2 minutes and one open session started 3 minutes ago
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	user := NewUserIdentity("alice")
	user.OpenSession("conn-1", start)
	user.CloseSession("conn-1", start.Add(2*time.Minute))
	user.OpenSession("conn-2", start.Add(5*time.Minute))

	// When: measuring at start+8m
	duration := user.SessionDuration(start.Add(8 * time.Minute))

	// Then: both windows are summed
	assert.Equal(t, 5*time.Minute, duration)
}

func TestConnectionStatus_Text(t *testing.T) {
	t.Run("Round trips through text", func(t *testing.T) {
		for status := range statusNames {
			text, err := status.MarshalText()
			require.NoError(t, err)

			var decoded ConnectionStatus
			require.NoError(t, decoded.UnmarshalText(text))
			assert.Equal(t, status, decoded)
		}
	})

	t.Run("Rejects unknown values", func(t *testing.T) {
		_, err := ConnectionStatus(42).MarshalText()
		require.Error(t, err)

		var decoded ConnectionStatus
		require.Error(t, decoded.UnmarshalText([]byte("sleeping")))
	})
}
