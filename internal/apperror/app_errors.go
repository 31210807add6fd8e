package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidGameID = errors.New("invalid game id")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell")
	ErrUnknownPlayer = errors.New("player is not a participant of the game")

	ErrUserNotFound       = errors.New("user not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSelfChallenge      = errors.New("can't challenge yourself")
	ErrAlreadyPlaying     = errors.New("player already has a game in progress")
	ErrAnonymous          = errors.New("anonymous connections can't play")

	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("too many messages")
)
