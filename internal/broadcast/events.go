package broadcast

import (
	"strings"
	"time"

	"github.com/playgrid/tictactoe-arena/internal/entity"
)

const (
	EventGameState = "gameState"
	EventChat      = "chat"
)

// Event is the tagged union pushed to channel subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ChatPayload struct {
	PlayerName string    `json:"playerName"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

func GameStateEvent(game *entity.Game) Event {
	return Event{
		Type:    EventGameState,
		Payload: game,
	}
}

// ChatEvent - builds a chat event. Text is trimmed; an empty-after-trim
// message is reported as not ok and must never be broadcast.
func ChatEvent(playerName, text string) (Event, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Event{}, false
	}

	return Event{
		Type: EventChat,
		Payload: ChatPayload{
			PlayerName: playerName,
			Text:       text,
			Timestamp:  time.Now().UTC(),
		},
	}, true
}
