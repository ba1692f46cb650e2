package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/playgrid/tictactoe-arena/internal/apperror"
	"github.com/playgrid/tictactoe-arena/internal/entity"
)

type createRequest struct {
	PlayerName string `json:"playerName"`
}

type joinRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type joinResponse struct {
	GameState *entity.Game `json:"gameState"`
	Role      string       `json:"role"`
}

type moveRequest struct {
	GameID     string       `json:"gameId"`
	Position   *json.Number `json:"position"`
	PlayerName string       `json:"playerName"`
}

func (that *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := that.uGame.CreateGame(r.Context(), req.PlayerName)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, role, err := that.uGame.JoinGame(r.Context(), req.GameID, req.PlayerName)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, joinResponse{GameState: game, Role: role})
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	game, err := that.uGame.GetGame(r.Context(), gameID)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := that.uGame.ListGames(r.Context())

	that.writeJSON(w, http.StatusOK, games)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A missing or fractional position is the same rule violation as an
	// out-of-range one.
	if req.Position == nil {
		that.writeError(w, http.StatusBadRequest, apperror.ErrInvalidPosition.Error())
		return
	}

	position, err := req.Position.Int64()
	if err != nil {
		that.writeError(w, http.StatusBadRequest, apperror.ErrInvalidPosition.Error())
		return
	}

	game, err := that.uGame.MakeMove(r.Context(), req.GameID, int(position), req.PlayerName)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	that.uGame.ResetAll(r.Context())

	that.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// decodeBody - decodes a JSON body; an entirely empty body decodes to
// the zero value so optional-field requests can omit it.
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// writeAppError - maps domain errors onto HTTP statuses. Rule
// violations carry their message through verbatim.
func (that *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrNotYourTurn):
		that.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperror.ErrInvalidPosition),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameOver):
		that.writeError(w, http.StatusBadRequest, err.Error())
	default:
		that.logger.Error("unexpected error", "error", err)
		that.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, map[string]string{"error": message})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
