package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Subscriber is one live websocket connection. The transport layer creates
// it after the upgrade and runs both pumps; the hub only sees the send
// channel.
type Subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	closeOnce sync.Once
}

func NewSubscriber(conn *websocket.Conn, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

func (s *Subscriber) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// WritePump drains the send channel onto the connection and keeps it alive
// with pings. Exits when the send channel closes or a write fails.
func (s *Subscriber) WritePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("write failed", "error", err)
				h.Unregister(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(s)
				return
			}
		}
	}
}

// ReadPump discards inbound frames, serving only to detect disconnects and
// answer pings. Unregisters the subscriber when the connection drops.
func (s *Subscriber) ReadPump(h *Hub) {
	defer func() {
		h.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
