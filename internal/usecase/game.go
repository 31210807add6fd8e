package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/tictactoe"
)

// MoveResult is what the game group receives for an applied move.
type MoveResult struct {
	Row    int
	Col    int
	Mark   string
	Winner string
	Game   entity.GameView
}

// Move applies the move of userID to gameID. Rejected moves return an error
// and broadcast nothing. Finished games are archived once the lock is released.
func (that *Coordinator) Move(ctx context.Context, gameID string, row, col int, userID string) (*MoveResult, error) {
	log := that.logger.With("method", "Move", "game_id", gameID, "user_id", userID)

	if userID == "" {
		return nil, apperror.ErrAnonymous
	}

	if _, err := uuid.Parse(gameID); err != nil {
		that.metrics.RecordMoveRejected(rejectReason(apperror.ErrInvalidGameID))
		return nil, fmt.Errorf("game id %q: %w", gameID, apperror.ErrInvalidGameID)
	}

	result, err := that.applyMove(gameID, row, col, userID)
	if err != nil {
		that.metrics.RecordMoveRejected(rejectReason(err))
		log.Debug("move rejected", "row", row, "col", col, "error", err)
		return nil, err
	}

	if result.Game.Status != entity.GameInProgress {
		log.Info("game finished", "status", result.Game.Status, "message", result.Game.Message)

		if err = that.archive.Save(ctx, &result.Game); err != nil {
			log.Error("failed to archive game", "error", err)
		}
	}

	return result, nil
}

func (that *Coordinator) applyMove(gameID string, row, col int, userID string) (*MoveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.lookupGame(gameID)
	if err != nil {
		return nil, err
	}

	outcome, err := tictactoe.ApplyMove(game, row, col, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	that.metrics.RecordMoveApplied()

	if game.IsFinished() {
		for _, player := range game.Players() {
			if player.IsOnline() {
				that.setStatus(player.ID, entity.StatusConnected)
			}
		}
		that.metrics.RecordGameFinished(game.Status.String())
	}

	view := game.View()
	that.notifier.SendGroup(game.ID, entity.Notification{
		Action:  entity.ActionDrawPlay,
		Payload: entity.DrawPlayPayload{Row: row, Col: col, Game: view, Mark: outcome.Mark},
	})

	return &MoveResult{
		Row:    row,
		Col:    col,
		Mark:   outcome.Mark,
		Winner: outcome.Winner,
		Game:   view,
	}, nil
}

func (that *Coordinator) lookupGame(gameID string) (*entity.Game, error) {
	if that.autoCreate {
		return that.games.GetOrCreate(gameID), nil
	}

	game, err := that.games.GetByID(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "invalid_cell"
	case errors.Is(err, apperror.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, apperror.ErrGameFinished):
		return "game_finished"
	case errors.Is(err, apperror.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, apperror.ErrInvalidGameID):
		return "invalid_game_id"
	default:
		return "other"
	}
}
