package usecase

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

const reasonNotConnected = "not_connected"

// Challenge asks the user behind toConnectionID to play against the caller.
func (that *Coordinator) Challenge(fromConnectionID, toConnectionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Challenge", "from", fromConnectionID, "to", toConnectionID)

	challenger, err := that.presence.GetByConnectionID(fromConnectionID)
	if err != nil {
		return fmt.Errorf("challenger: %w", apperror.ErrAnonymous)
	}

	if fromConnectionID == toConnectionID {
		return apperror.ErrSelfChallenge
	}

	target, err := that.presence.GetByConnectionID(toConnectionID)
	if err != nil {
		log.Info("challenge target is not connected")
		that.notifier.Send(fromConnectionID, entity.Notification{
			Action:  entity.ActionChallengeFailed,
			Payload: entity.ChallengeFailedPayload{ConnectionID: toConnectionID, Reason: reasonNotConnected},
		})
		return err
	}

	if err = that.ensureIdle(challenger, target); err != nil {
		log.Info("challenge rejected", "error", err)
		return err
	}

	that.setStatus(challenger.ID, entity.StatusChallenging)
	that.setStatus(target.ID, entity.StatusChallenged)

	that.notifier.Send(toConnectionID, entity.Notification{
		Action:  entity.ActionGetChallengeResponse,
		Payload: entity.ChallengeResponsePayload{ConnectionID: fromConnectionID, UserID: challenger.ID},
	})
	that.notifier.Send(fromConnectionID, entity.Notification{
		Action:  entity.ActionWaitForResponse,
		Payload: entity.WaitForResponsePayload{UserID: target.ID},
	})

	log.Info("challenge sent", "challenger", challenger.ID, "target", target.ID)

	return nil
}

// ChallengeAccepted starts a game between the accepting caller and the challenger
// behind toConnectionID. The challenger plays first.
func (that *Coordinator) ChallengeAccepted(fromConnectionID, toConnectionID string) (*entity.GameView, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ChallengeAccepted", "from", fromConnectionID, "to", toConnectionID)

	acceptor, err := that.presence.GetByConnectionID(fromConnectionID)
	if err != nil {
		return nil, fmt.Errorf("acceptor: %w", apperror.ErrAnonymous)
	}

	challenger, err := that.presence.GetByConnectionID(toConnectionID)
	if err != nil {
		that.notifier.Send(fromConnectionID, entity.Notification{
			Action:  entity.ActionChallengeFailed,
			Payload: entity.ChallengeFailedPayload{ConnectionID: toConnectionID, Reason: reasonNotConnected},
		})
		return nil, err
	}

	if acceptor.ID == challenger.ID {
		return nil, apperror.ErrSelfChallenge
	}

	if err = that.ensureIdle(challenger, acceptor); err != nil {
		that.settleStatus(challenger.ID)
		that.settleStatus(acceptor.ID)
		return nil, err
	}

	game := that.games.Create(challenger, acceptor)

	that.setStatus(challenger.ID, entity.StatusPlaying)
	that.setStatus(acceptor.ID, entity.StatusPlaying)

	that.notifier.JoinGroup(game.ID, toConnectionID)
	that.notifier.JoinGroup(game.ID, fromConnectionID)

	view := game.View()
	that.notifier.SendAll(entity.Notification{
		Action:  entity.ActionBeginGame,
		Payload: entity.BeginGamePayload{Game: view},
	})

	that.metrics.RecordGameStarted()
	log.Info("game started", "game_id", game.ID, "player_a", challenger.ID, "player_b", acceptor.ID)

	return &view, nil
}

// ChallengeRefused tells the challenger behind toConnectionID that the caller declined.
func (that *Coordinator) ChallengeRefused(fromConnectionID, toConnectionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	refuser, err := that.presence.GetByConnectionID(fromConnectionID)
	if err != nil {
		return fmt.Errorf("refuser: %w", apperror.ErrAnonymous)
	}

	challenger, err := that.presence.GetByConnectionID(toConnectionID)
	if err != nil {
		return err
	}

	that.settleStatus(refuser.ID)
	that.settleStatus(challenger.ID)

	that.notifier.Send(toConnectionID, entity.Notification{Action: entity.ActionChallengeRefused})

	that.logger.Info("challenge refused", "method", "ChallengeRefused", "challenger", challenger.ID, "refuser", refuser.ID)

	return nil
}

// ensureIdle fails with apperror.ErrAlreadyPlaying when any of users has a game in progress.
func (that *Coordinator) ensureIdle(users ...*entity.UserIdentity) error {
	for _, user := range users {
		if game, ok := that.activeGame(user.ID); ok {
			return fmt.Errorf("user %q in game %s: %w", user.ID, game.ID, apperror.ErrAlreadyPlaying)
		}
	}
	return nil
}

// settleStatus puts a user back to Playing while its game is in progress, otherwise to Connected.
func (that *Coordinator) settleStatus(userID string) {
	if _, ok := that.activeGame(userID); ok {
		that.setStatus(userID, entity.StatusPlaying)
		return
	}
	that.setStatus(userID, entity.StatusConnected)
}
