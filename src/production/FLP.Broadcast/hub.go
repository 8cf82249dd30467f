package broadcast

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	config "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Config"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
)

// Hub tracks connected viewers and fans readings out to them.
// A session enters the set on Attach and leaves it when its read pump ends.
type Hub struct {
	cfg      config.LiveConfig
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func NewHub(cfg config.LiveConfig, log *logger.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: log.WithComponent("live_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*Session]struct{}),
	}
}

// Upgrade switches an HTTP request to a WebSocket and attaches it as a viewer
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*Session, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	return h.Attach(conn), nil
}

// Attach registers a connection, queues the welcome message ahead of any
// broadcast and starts the session pumps.
func (h *Hub) Attach(conn *websocket.Conn) *Session {
	s := newSession(h, conn, h.cfg.SendBuffer)

	welcome, _ := json.Marshal(flpmodels.WelcomeMessage{Message: flpmodels.WelcomeText})
	s.enqueue(welcome)

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()

	s.logger.Logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Int("viewers", count).Msg("Client connected")

	go s.writePump()
	go s.readPump()
	return s
}

// Broadcast sends msg to every open session and returns how many accepted it.
// Viewers with a full buffer miss this message; nobody else is affected.
func (h *Hub) Broadcast(msg interface{}) (int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshal broadcast: %w", err)
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if !s.Open() {
			continue
		}
		if s.enqueue(payload) {
			delivered++
		} else {
			s.logger.Logger.Warn().Msg("Viewer buffer full, dropping message")
		}
	}
	return delivered, nil
}

// Count returns the number of attached sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close closes every session. Write pumps send a close frame and exit.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.close()
	}
}

func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	s.close()
	if ok {
		s.logger.Logger.Info().Int("viewers", count).Msg("Client disconnected")
	}
}
