package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single frame write. A peer that stopped reading
// makes the write error out instead of blocking its pump forever, and
// the erroring handle gets evicted from its channel.
const writeWait = 10 * time.Second

// chatFrame is the only inbound frame clients may send.
type chatFrame struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
}

// client wraps a gorilla connection with a write lock so the hub can
// deliver to it from several channels at once. gorilla permits only
// one concurrent writer per connection.
type client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn}
}

// WriteMessage - satisfies the hub's connection contract.
func (that *client) WriteMessage(messageType int, data []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return that.conn.WriteMessage(messageType, data)
}

func (that *client) Close() error {
	that.closeOnce.Do(func() {
		that.closeErr = that.conn.Close()
	})

	return that.closeErr
}

// ReadFrame - reads the next inbound frame. A malformed frame is
// returned as nil with no error so the caller can skip it.
func (that *client) ReadFrame() (*chatFrame, error) {
	_, payload, err := that.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var frame chatFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, nil //nolint:nilnil // malformed frames are dropped, not errored
	}

	return &frame, nil
}
