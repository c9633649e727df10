package callbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"collections_console/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// SignalType classifies events from the signaling leg.
type SignalType string

const (
	SignalConnected SignalType = "connected"
	SignalEnded     SignalType = "ended"
	SignalError     SignalType = "error"
)

// Signal is one event from the remote signaling leg.
type Signal struct {
	Type   SignalType
	Reason string
}

// SignalConn is an established signaling channel for one call. Events
// is closed when the channel shuts down.
type SignalConn interface {
	Events() <-chan Signal
	Hangup() error
	Close() error
}

// Signaler negotiates the signaling leg of an outbound call using a
// short-lived voice token.
type Signaler interface {
	Dial(ctx context.Context, voiceToken, callerID, number string) (SignalConn, error)
}

// WSSignaler dials the telephony provider's websocket signaling
// endpoint and translates its messages into Signals.
type WSSignaler struct {
	url string
	log *logger.Logger
}

// NewWSSignaler creates a websocket-backed signaler.
func NewWSSignaler(url string, log *logger.Logger) *WSSignaler {
	return &WSSignaler{url: url, log: log}
}

// wire messages exchanged with the signaling endpoint.
type signalMessage struct {
	Type   string `json:"type"`
	To     string `json:"to,omitempty"`
	From   string `json:"from,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Dial connects, sends the invite, and starts the read loop.
func (s *WSSignaler) Dial(ctx context.Context, voiceToken, callerID, number string) (SignalConn, error) {
	if s.url == "" {
		return nil, fmt.Errorf("signaling endpoint not configured")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+voiceToken)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial signaling endpoint: %w", err)
	}

	invite := signalMessage{Type: "invite", To: number, From: callerID}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(invite); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send invite: %w", err)
	}

	wc := &wsSignalConn{
		conn:   conn,
		events: make(chan Signal, 4),
		log:    s.log,
	}
	go wc.readLoop()
	return wc, nil
}

type wsSignalConn struct {
	conn   *websocket.Conn
	events chan Signal
	log    *logger.Logger
}

func (c *wsSignalConn) Events() <-chan Signal {
	return c.events
}

// Hangup tells the remote leg to tear the call down.
func (c *wsSignalConn) Hangup() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(signalMessage{Type: "hangup"})
}

func (c *wsSignalConn) Close() error {
	return c.conn.Close()
}

// readLoop pumps provider messages into the events channel until the
// connection drops.
func (c *wsSignalConn) readLoop() {
	defer close(c.events)
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.events <- Signal{Type: SignalEnded, Reason: "connection closed"}
			} else {
				c.events <- Signal{Type: SignalError, Reason: err.Error()}
			}
			return
		}

		var msg signalMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "connected":
			c.events <- Signal{Type: SignalConnected}
		case "ended", "hangup":
			c.events <- Signal{Type: SignalEnded, Reason: msg.Reason}
		case "error":
			c.events <- Signal{Type: SignalError, Reason: msg.Reason}
		}
	}
}
