package entity

import "github.com/playgrid/tictactoe-arena/internal/apperror"

const (
	RoleX         = "X"
	RoleO         = "O"
	RoleSpectator = "spectator"
)

// ResolveJoin - resolves the role of a joining participant and claims
// a free slot when one is available. A returning name always recovers
// the same role and an existing claim is never displaced; once both
// slots are held by other names the participant is a spectator. The
// receiver is never mutated.
func (that *Game) ResolveJoin(playerName string) (*Game, string) {
	if playerName == "" {
		return that.Clone(), RoleSpectator
	}

	joined := that.Clone()
	if joined.Players == nil {
		joined.Players = &Players{}
	}

	switch {
	case joined.Players.X == playerName:
		return joined, RoleX
	case joined.Players.O == playerName:
		return joined, RoleO
	case joined.Players.X == "":
		joined.Players.X = playerName
		return joined, RoleX
	case joined.Players.O == "":
		joined.Players.O = playerName
		return joined, RoleO
	default:
		return joined, RoleSpectator
	}
}

// AuthorizeMove - checks that the declared actor holds the slot whose
// turn it is. Anonymous play (no declared name, or no recorded
// players) permits any caller; unauthenticated single-pair clients
// depend on that.
func (that *Game) AuthorizeMove(playerName string) error {
	if playerName == "" || that.Players == nil {
		return nil
	}

	holder := that.Players.X
	if that.Turn == PlayerO {
		holder = that.Players.O
	}

	if holder != playerName {
		return apperror.ErrNotYourTurn
	}

	return nil
}
