// Package broadcast fans serialized events out to the live connections
// of named channels: one channel per game plus the global lobby. It
// owns connection membership only and never owns game state.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Lobby is the channel shared by every connected client, independent
// of any game channel.
const Lobby = "lobby"

// sendBuffer is how many pending events a member may lag behind its
// channel before the hub gives up on it.
const sendBuffer = 32

var expiredFrame = websocket.FormatCloseMessage(websocket.CloseGoingAway, "game expired")

// Conn is the subset of a websocket connection the hub needs. Writes
// through one Conn must be safe to call from multiple goroutines.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub maintains channel membership and publishes events. Every member
// gets a buffered send queue drained by its own write pump, so
// enqueueing never blocks: a peer that stops reading fills its queue
// and is evicted instead of wedging the channel for everyone else.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[string]*channel
}

// channel guards one membership set. closed marks a torn-down set so a
// subscriber racing the teardown is turned away instead of being
// parked where no publish will ever reach it again.
type channel struct {
	mu     sync.Mutex
	closed bool
	subs   map[Conn]*subscriber
}

type outMessage struct {
	messageType int
	payload     []byte
}

// subscriber owns the write side of one member connection. Everything
// goes through the send queue, which keeps per-member delivery order
// equal to enqueue order.
type subscriber struct {
	conn  Conn
	send  chan outMessage
	evict func()

	stopOnce sync.Once
}

func newSubscriber(conn Conn) *subscriber {
	return &subscriber{conn: conn, send: make(chan outMessage, sendBuffer)}
}

// enqueue - queues one message without blocking. Reports false when
// the queue is full.
func (that *subscriber) enqueue(msg outMessage) bool {
	select {
	case that.send <- msg:
		return true
	default:
		return false
	}
}

// stop - closes the send queue; the write pump drains what is already
// queued and then closes the connection. Callers must have removed the
// subscriber from its channel first, so nothing enqueues after the
// close.
func (that *subscriber) stop() {
	that.stopOnce.Do(func() { close(that.send) })
}

func (that *subscriber) writePump() {
	defer func() { _ = that.conn.Close() }()

	for msg := range that.send {
		if err := that.conn.WriteMessage(msg.messageType, msg.payload); err != nil {
			that.evict()
			return
		}
	}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger.With("component", "broadcast"),
		channels: make(map[string]*channel),
	}
}

// Subscribe - adds the connection to the channel, creating the channel
// on first use. A connection that races the channel's teardown gets
// the close notification instead of a slot.
func (that *Hub) Subscribe(name string, conn Conn) {
	sub := newSubscriber(conn)
	sub.evict = func() { that.Unsubscribe(name, conn) }
	go sub.writePump()

	that.mu.Lock()
	ch, ok := that.channels[name]
	if !ok {
		ch = &channel{subs: make(map[Conn]*subscriber)}
		that.channels[name] = ch
	}
	that.mu.Unlock()

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		sub.enqueue(outMessage{websocket.CloseMessage, expiredFrame})
		sub.stop()
		return
	}
	ch.subs[conn] = sub
	ch.mu.Unlock()
}

// Unsubscribe - drops the connection from the channel and stops its
// write pump. Safe to call for a connection that was already removed.
func (that *Hub) Unsubscribe(name string, conn Conn) {
	that.mu.RLock()
	ch, ok := that.channels[name]
	that.mu.RUnlock()

	if !ok {
		return
	}

	ch.mu.Lock()
	sub, member := ch.subs[conn]
	if member {
		delete(ch.subs, conn)
	}
	ch.mu.Unlock()

	if member {
		sub.stop()
	}
}

// Members - reports the channel's current member count.
func (that *Hub) Members(name string) int {
	that.mu.RLock()
	ch, ok := that.channels[name]
	that.mu.RUnlock()

	if !ok {
		return 0
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	return len(ch.subs)
}

// Publish - serializes the event once and queues it for every current
// member of the channel. A member whose queue is full is dropped
// without affecting delivery to the rest.
func (that *Hub) Publish(name string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "channel", name, "type", event.Type, "error", err)
		return
	}

	that.mu.RLock()
	ch, ok := that.channels[name]
	that.mu.RUnlock()

	if !ok {
		return
	}

	msg := outMessage{websocket.TextMessage, payload}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for conn, sub := range ch.subs {
		if !sub.enqueue(msg) {
			that.logger.Debug("dropping stalled subscriber", "channel", name)
			delete(ch.subs, conn)
			sub.stop()
		}
	}
}

// SendTo - delivers one event to a single channel member. produce runs
// under the channel lock, so the state it captures cannot be overtaken
// by a publish reflecting a later commit: whatever produce reads is
// queued ahead of it. produce must not publish to the same channel.
func (that *Hub) SendTo(name string, conn Conn, produce func() (Event, error)) error {
	that.mu.RLock()
	ch, ok := that.channels[name]
	that.mu.RUnlock()

	if !ok {
		return nil
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	sub, ok := ch.subs[conn]
	if !ok {
		return nil
	}

	event, err := produce()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if !sub.enqueue(outMessage{websocket.TextMessage, payload}) {
		delete(ch.subs, conn)
		sub.stop()
	}

	return nil
}

// CloseChannel - tears the channel down: members get a best-effort
// close notification, then the whole set is dropped. Used when a game
// is reaped. A member that never drains its queue cannot stall the
// teardown.
func (that *Hub) CloseChannel(name string) {
	that.mu.Lock()
	ch, ok := that.channels[name]
	delete(that.channels, name)
	that.mu.Unlock()

	if !ok {
		return
	}

	msg := outMessage{websocket.CloseMessage, expiredFrame}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.closed = true
	for conn, sub := range ch.subs {
		sub.enqueue(msg)
		delete(ch.subs, conn)
		sub.stop()
	}
}

// Reset - tears down every game channel. The lobby survives so
// connected clients keep their chat after an administrative reset.
func (that *Hub) Reset() {
	that.mu.RLock()
	names := make([]string, 0, len(that.channels))
	for name := range that.channels {
		if name != Lobby {
			names = append(names, name)
		}
	}
	that.mu.RUnlock()

	for _, name := range names {
		that.CloseChannel(name)
	}
}
