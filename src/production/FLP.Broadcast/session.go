package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
)

// Session is one connected live viewer
type Session struct {
	ID string

	hub    *Hub
	conn   *websocket.Conn
	logger *logger.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newSession(hub *Hub, conn *websocket.Conn, buffer int) *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		hub:    hub,
		conn:   conn,
		logger: hub.logger.WithField("session_id", id),
		send:   make(chan []byte, buffer),
	}
}

// Open reports whether the session still accepts messages
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// enqueue queues a frame without blocking. It returns false when the session
// is closed or its buffer is full.
func (s *Session) enqueue(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// readPump drains inbound frames so control messages are processed. Viewers
// are not expected to send anything; text frames are ignored.
func (s *Session) readPump() {
	defer func() {
		s.hub.detach(s)
		s.conn.Close()
	}()

	cfg := s.hub.cfg
	s.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Logger.Warn().Err(err).Msg("Viewer read error")
			}
			return
		}
	}
}

func (s *Session) writePump() {
	cfg := s.hub.cfg
	ticker := time.NewTicker(pingPeriod(cfg.PongWait))
	defer func() {
		ticker.Stop()
		s.close()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Logger.Debug().Err(err).Msg("Viewer write failed")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func pingPeriod(pongWait time.Duration) time.Duration {
	return (pongWait * 9) / 10
}
