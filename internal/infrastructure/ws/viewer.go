// Package ws relays map surface commands and viewer events to connected
// clients over websockets.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrConnectionNotFound = errors.New("connection not found")

type message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// InboundMessage is a client message: pointer and keyboard input feeding
// the session controller.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageHandler consumes inbound client messages of one viewer.
type MessageHandler func(viewerID string, msg InboundMessage)

/* Structure for managing websocket connections for concurrent access */
type websocketsMap struct {
	sync.RWMutex
	connections map[string]*websocket.Conn
}

func (w *websocketsMap) Set(key string, conn *websocket.Conn) {
	w.Lock()
	defer w.Unlock()
	if conn == nil {
		delete(w.connections, key)
	} else {
		w.connections[key] = conn
	}
}

func (w *websocketsMap) Get(key string) *websocket.Conn {
	w.RLock()
	defer w.RUnlock()
	return w.connections[key]
}

// ViewerWS holds the websocket connections of active viewers, keyed by
// viewer id.
type ViewerWS struct {
	log       *zap.SugaredLogger
	upgrader  websocket.Upgrader
	viewers   *websocketsMap
	onMessage MessageHandler
}

func NewViewerWS(log *zap.SugaredLogger) *ViewerWS {
	return &ViewerWS{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		viewers: &websocketsMap{connections: make(map[string]*websocket.Conn)},
	}
}

// SetMessageHandler installs the consumer of inbound client messages.
func (s *ViewerWS) SetMessageHandler(handler MessageHandler) {
	s.onMessage = handler
}

// Send delivers one typed message to a viewer. A viewer without a
// connection is not an error; surface commands issued before the socket
// opens are simply not observable.
func (s *ViewerWS) Send(viewerID, msgType string, data interface{}) error {
	conn := s.viewers.Get(viewerID)
	if conn == nil {
		return nil
	}
	return conn.WriteJSON(message{Type: msgType, Data: data})
}

// Handler upgrades the request and pumps inbound messages until the
// client disconnects.
func (s *ViewerWS) Handler(viewerID string, w http.ResponseWriter, r *http.Request) (err error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.viewers.Set(viewerID, conn)
	s.log.Infow("viewer websocket connected", "viewer", viewerID)
	for {
		_, raw, rerr := conn.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = rerr
				s.log.Errorw("viewer websocket error", "viewer", viewerID, zap.Error(rerr))
			}
			break
		}
		var msg InboundMessage
		if jerr := json.Unmarshal(raw, &msg); jerr != nil {
			s.log.Warnw("discarding malformed viewer message", "viewer", viewerID, zap.Error(jerr))
			continue
		}
		if s.onMessage != nil {
			s.onMessage(viewerID, msg)
		}
	}
	s.viewers.Set(viewerID, nil)
	s.log.Infow("viewer websocket closed", "viewer", viewerID)
	return err
}
