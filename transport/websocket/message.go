package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

var errInvalidPayload = errors.New("invalid payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is the envelope used in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectionPayload struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type MovePayload struct {
	GameID string `json:"gameId" validate:"required,uuid"`
	Row    int    `json:"row" validate:"required,min=1,max=3"`
	Col    int    `json:"col" validate:"required,min=1,max=3"`
}

// decodePayload unmarshals raw into dst and validates its struct tags.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	return nil
}

func encodeNotification(notification entity.Notification) ([]byte, error) {
	message := Message{Action: notification.Action}

	if notification.Payload != nil {
		payload, err := json.Marshal(notification.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		message.Payload = payload
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
