package chat

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
)

// Conn is one live websocket connection with its authenticated principal
// attached. The principal never changes for the lifetime of the connection.
type Conn struct {
	ID        string
	Principal *auth.Principal

	ws *websocket.Conn
	// gorilla connections allow only one concurrent writer.
	writeMu sync.Mutex
}

func newConn(id string, principal *auth.Principal, ws *websocket.Conn) *Conn {
	return &Conn{ID: id, Principal: principal, ws: ws}
}

// Registry tracks live connections. The map is only mutated on connect and
// disconnect; pipelines just look connections up to deliver events.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: map[string]*Conn{}}
}

func (r *Registry) Add(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	activeConnectionsMetric.Inc()
}

func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; ok {
		delete(r.conns, connID)
		activeConnectionsMetric.Dec()
	}
}

// Get returns the connection if it is still live.
func (r *Registry) Get(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}

// Send delivers an event to exactly one connection. Sending to a connection
// that has gone away is a silent no-op: there is no one left to deliver to,
// and the pipeline must not fail because of it.
func (r *Registry) Send(connID string, event Event) {
	conn, ok := r.Get(connID)
	if !ok {
		log.WithField("connection", connID).Debug("dropping event for absent connection")
		return
	}

	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	if err := conn.ws.WriteJSON(event); err != nil {
		log.WithError(err).WithField("connection", connID).Debug("websocket write failed")
	}
}
