package entity

import "fmt"

// GameStatus is the lifecycle state of a game.
type GameStatus int

const (
	GameInProgress GameStatus = iota
	GameDecided
	GameDrawn
)

var gameStatusNames = map[GameStatus]string{
	GameInProgress: "in_progress",
	GameDecided:    "decided",
	GameDrawn:      "drawn",
}

func (that GameStatus) String() string {
	if name, ok := gameStatusNames[that]; ok {
		return name
	}
	return fmt.Sprintf("game_status(%d)", int(that))
}

func (that GameStatus) MarshalText() ([]byte, error) {
	if _, ok := gameStatusNames[that]; !ok {
		return nil, fmt.Errorf("unknown game status %d", int(that))
	}
	return []byte(that.String()), nil
}

func (that *GameStatus) UnmarshalText(text []byte) error {
	for status, name := range gameStatusNames {
		if name == string(text) {
			*that = status
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", text)
}

// Cell marks. Line sums of 3*MarkA and 3*MarkB can't collide with any mixed line.
const (
	EmptyCell = 0
	MarkA     = 1
	MarkB     = 10
)

// Letters shown to clients for each mark.
const (
	LetterA = "O"
	LetterB = "X"
)

const (
	MessageInProgress = "In Progress"
	MessageDrawn      = "Game Drawn"
)

func WinMessage(userID string) string {
	return userID + " wins!"
}

// Grid is addressed as Grid[row][col], both 0-based.
type Grid [3][3]int

func (that *Grid) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}
	return true
}

// Game is a match between two users. Players are shared references to the
// presence registry's identities, so views always carry their live status.
type Game struct {
	ID       string
	Grid     Grid
	NextTurn string
	PlayerA  *UserIdentity
	PlayerB  *UserIdentity
	Status   GameStatus
	Message  string
}

func NewGame(id string) *Game {
	return &Game{
		ID:      id,
		Status:  GameInProgress,
		Message: MessageInProgress,
	}
}

func (that *Game) IsInProgress() bool {
	return that.Status == GameInProgress
}

func (that *Game) IsFinished() bool {
	return that.Status == GameDecided || that.Status == GameDrawn
}

func (that *Game) HasPlayer(userID string) bool {
	return (that.PlayerA != nil && that.PlayerA.ID == userID) ||
		(that.PlayerB != nil && that.PlayerB.ID == userID)
}

func (that *Game) Players() []*UserIdentity {
	players := make([]*UserIdentity, 0, 2)
	for _, player := range []*UserIdentity{that.PlayerA, that.PlayerB} {
		if player != nil {
			players = append(players, player)
		}
	}
	return players
}

// ReplacePlayer points the participant slot holding user.ID at user.
// It reports whether a slot matched.
func (that *Game) ReplacePlayer(user *UserIdentity) bool {
	switch {
	case that.PlayerA != nil && that.PlayerA.ID == user.ID:
		that.PlayerA = user
	case that.PlayerB != nil && that.PlayerB.ID == user.ID:
		that.PlayerB = user
	default:
		return false
	}
	return true
}

// View returns a detached snapshot that is safe to hand to other goroutines.
func (that *Game) View() GameView {
	view := GameView{
		ID:       that.ID,
		Grid:     that.Grid,
		NextTurn: that.NextTurn,
		Status:   that.Status,
		Message:  that.Message,
	}

	if that.PlayerA != nil {
		entry := that.PlayerA.Presence()
		view.PlayerA = &entry
	}

	if that.PlayerB != nil {
		entry := that.PlayerB.Presence()
		view.PlayerB = &entry
	}

	return view
}

type GameView struct {
	ID       string         `json:"id"`
	Grid     Grid           `json:"grid"`
	NextTurn string         `json:"nextTurn"`
	Status   GameStatus     `json:"status"`
	Message  string         `json:"message"`
	PlayerA  *PresenceEntry `json:"playerA,omitempty"`
	PlayerB  *PresenceEntry `json:"playerB,omitempty"`
}
