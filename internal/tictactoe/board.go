package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

const boardSize = 3

// Lines lists every winning line as [row, col] pairs: rows, then columns, then diagonals.
var Lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Outcome describes an applied move.
type Outcome struct {
	// Mark is the letter that was written: "O" for player A, "X" for player B.
	Mark string
	// Winner is the id of the winning user, empty unless the move decided the game.
	Winner string
}

// ApplyMove writes the mark of userID at the 1-based (row, col) and re-evaluates the game.
// The game is left unchanged when an error is returned.
func ApplyMove(game *entity.Game, row, col int, userID string) (Outcome, error) {
	if !game.IsInProgress() {
		return Outcome{}, apperror.ErrGameFinished
	}

	if row < 1 || row > boardSize || col < 1 || col > boardSize {
		return Outcome{}, fmt.Errorf("cell (%d, %d): %w", row, col, apperror.ErrInvalidCell)
	}

	r, c := row-1, col-1
	if game.Grid[r][c] != entity.EmptyCell {
		return Outcome{}, fmt.Errorf("cell (%d, %d): %w", row, col, apperror.ErrCellOccupied)
	}

	mark, letter, next, err := markFor(game, userID)
	if err != nil {
		return Outcome{}, err
	}

	game.Grid[r][c] = mark
	game.NextTurn = next

	outcome := Outcome{Mark: letter}
	if winner := winningMark(&game.Grid); winner != entity.EmptyCell {
		outcome.Winner = ownerOf(game, winner)
		game.Status = entity.GameDecided
		game.Message = entity.WinMessage(outcome.Winner)
		game.NextTurn = ""
		return outcome, nil
	}

	if game.Grid.IsFull() {
		game.Status = entity.GameDrawn
		game.Message = entity.MessageDrawn
		game.NextTurn = ""
		return outcome, nil
	}

	game.Message = entity.MessageInProgress
	return outcome, nil
}

func markFor(game *entity.Game, userID string) (int, string, string, error) {
	switch {
	case game.PlayerA != nil && game.PlayerA.ID == userID:
		return entity.MarkA, entity.LetterA, playerID(game.PlayerB), nil
	case game.PlayerB != nil && game.PlayerB.ID == userID:
		return entity.MarkB, entity.LetterB, playerID(game.PlayerA), nil
	default:
		return 0, "", "", fmt.Errorf("user %q: %w", userID, apperror.ErrUnknownPlayer)
	}
}

func playerID(user *entity.UserIdentity) string {
	if user == nil {
		return ""
	}
	return user.ID
}

func ownerOf(game *entity.Game, mark int) string {
	if mark == entity.MarkA {
		return playerID(game.PlayerA)
	}
	return playerID(game.PlayerB)
}

// winningMark returns the mark that completes a line, checking lines in order.
func winningMark(grid *entity.Grid) int {
	for _, line := range Lines {
		sum := 0
		for _, cell := range line {
			sum += grid[cell[0]][cell[1]]
		}

		switch sum {
		case boardSize * entity.MarkA:
			return entity.MarkA
		case boardSize * entity.MarkB:
			return entity.MarkB
		}
	}

	return entity.EmptyCell
}
