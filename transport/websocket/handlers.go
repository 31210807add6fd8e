package websocket

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
)

func (that *Server) handleChallenge(_ context.Context, client *Client, message *Message) error {
	var payload ConnectionPayload
	if err := decodePayload(message.Payload, &payload); err != nil {
		that.sendError(client, message.Action, err)
		return err
	}

	err := that.coordinator.Challenge(client.id, payload.ConnectionID)
	that.reportChallengeError(client, message.Action, err)

	return err
}

func (that *Server) handleChallengeAccept(_ context.Context, client *Client, message *Message) error {
	var payload ConnectionPayload
	if err := decodePayload(message.Payload, &payload); err != nil {
		that.sendError(client, message.Action, err)
		return err
	}

	_, err := that.coordinator.ChallengeAccepted(client.id, payload.ConnectionID)
	that.reportChallengeError(client, message.Action, err)

	return err
}

func (that *Server) handleChallengeRefuse(_ context.Context, client *Client, message *Message) error {
	var payload ConnectionPayload
	if err := decodePayload(message.Payload, &payload); err != nil {
		that.sendError(client, message.Action, err)
		return err
	}

	err := that.coordinator.ChallengeRefused(client.id, payload.ConnectionID)
	if err != nil {
		that.sendError(client, message.Action, err)
	}

	return err
}

// reportChallengeError surfaces err unless the caller was already sent challengeFailed.
func (that *Server) reportChallengeError(client *Client, action string, err error) {
	if err == nil || errors.Is(err, apperror.ErrConnectionNotFound) {
		return
	}
	that.sendError(client, action, err)
}

// handleMove applies a move. Rejected moves are not answered: the board simply does not change.
func (that *Server) handleMove(ctx context.Context, client *Client, message *Message) error {
	var payload MovePayload
	if err := decodePayload(message.Payload, &payload); err != nil {
		that.sendError(client, message.Action, err)
		return err
	}

	_, err := that.coordinator.Move(ctx, payload.GameID, payload.Row, payload.Col, client.userID)
	return err
}

func (that *Server) handleLogout(ctx context.Context, client *Client, message *Message) error {
	if err := that.coordinator.Logout(ctx, client.userID); err != nil {
		that.sendError(client, message.Action, err)
		return err
	}

	client.setUser("")
	return nil
}
