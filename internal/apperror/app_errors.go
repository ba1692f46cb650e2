package apperror

import "errors"

var (
	ErrInvalidPosition = errors.New("position must be an integer between 0 and 8")
	ErrCellOccupied    = errors.New("position is already occupied")
	ErrGameOver        = errors.New("game is already over")

	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrNotYourTurn       = errors.New("it's not your turn")
)
