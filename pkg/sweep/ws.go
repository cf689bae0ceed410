package sweep

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsWriteWait bounds how long a single command write may take.
const wsWriteWait = 500 * time.Millisecond

// WSServo drives a servo bridge over a persistent websocket, for
// firmware that exposes a ws:// command endpoint instead of HTTP.
// The connection is dialed lazily and redialed after write failures.
type WSServo struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSServo creates a websocket servo driver for the given ws:// URL.
func NewWSServo(url string) *WSServo {
	return &WSServo{url: url}
}

// angleCommand is the wire format the bridge expects.
type angleCommand struct {
	Command string  `json:"command"`
	Angle   float64 `json:"angle"`
}

// SetAngle sends the target angle over the websocket, dialing first if
// needed. A failed write tears the connection down so the next call
// redials.
func (s *WSServo) SetAngle(degrees float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			return fmt.Errorf("servo dial failed: %w", err)
		}
		s.conn = conn
	}

	payload, err := json.Marshal(angleCommand{
		Command: "set_angle",
		Angle:   clamp(degrees, MinAngle, MaxAngle),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal angle command: %w", err)
	}

	s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("servo write failed: %w", err)
	}
	return nil
}

// Close shuts the websocket down.
func (s *WSServo) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
