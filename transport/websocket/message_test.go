package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_Move(t *testing.T) {
	const gameID = "6f1c1f4e-9a52-4b8e-9d1b-1f2a3b4c5d6e"

	t.Run("Valid move", func(t *testing.T) {
		var payload MovePayload
		err := decodePayload(json.RawMessage(`{"gameId":"`+gameID+`","row":3,"col":1}`), &payload)

		require.NoError(t, err)
		assert.Equal(t, MovePayload{GameID: gameID, Row: 3, Col: 1}, payload)
	})

	tests := []struct {
		name string
		raw  string
	}{
		{name: "row below range", raw: `{"gameId":"` + gameID + `","row":0,"col":1}`},
		{name: "col above range", raw: `{"gameId":"` + gameID + `","row":1,"col":4}`},
		{name: "missing game", raw: `{"row":1,"col":1}`},
		{name: "game is not a uuid", raw: `{"gameId":"abc","row":1,"col":1}`},
		{name: "row is not a number", raw: `{"gameId":"` + gameID + `","row":"1","col":1}`},
		{name: "empty payload", raw: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload MovePayload
			err := decodePayload(json.RawMessage(tt.raw), &payload)

			require.ErrorIs(t, err, errInvalidPayload)
		})
	}
}

func TestDecodePayload_Connection(t *testing.T) {
	var payload ConnectionPayload

	require.NoError(t, decodePayload(json.RawMessage(`{"connectionId":"conn-1"}`), &payload))
	assert.Equal(t, "conn-1", payload.ConnectionID)

	require.ErrorIs(t, decodePayload(json.RawMessage(`{}`), &ConnectionPayload{}), errInvalidPayload)
}
