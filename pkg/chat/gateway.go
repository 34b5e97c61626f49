package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/auth"
)

// Gateway is the websocket entry point. Authentication happens once, before
// the upgrade; a connection that fails it never gets to emit an application
// event.
type Gateway struct {
	authenticator *auth.Authenticator
	registry      *Registry
	orchestrator  *Orchestrator
	upgrader      websocket.Upgrader
}

func NewGateway(authenticator *auth.Authenticator, registry *Registry, orchestrator *Orchestrator) *Gateway {
	return &Gateway{
		authenticator: authenticator,
		registry:      registry,
		orchestrator:  orchestrator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for now - in production you might want to be more restrictive
				return true
			},
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie("token"); err == nil {
		token = cookie.Value
	}

	principal, err := g.authenticator.Authenticate(r.Context(), token)
	if err != nil {
		// One generic rejection for every failure class.
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("failed to upgrade websocket connection")
		return
	}
	defer ws.Close()

	conn := newConn(uuid.NewString(), principal, ws)
	g.registry.Add(conn)
	defer g.registry.Remove(conn.ID)

	logger := log.WithFields(log.Fields{
		"connection": conn.ID,
		"principal":  principal.ID,
		"role":       principal.Role,
	})
	logger.Infof("%s connected: %s", principal.Role, principal.Name)
	defer logger.Infof("%s disconnected: %s", principal.Role, principal.Name)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		envelope := inboundEvent{}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logger.WithError(err).Debug("ignoring malformed event")
			continue
		}

		if envelope.Event != EventAIMessage {
			logger.WithField("event", envelope.Event).Debug("ignoring unknown event")
			continue
		}

		payload := MessagePayload{}
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			g.registry.Send(conn.ID, Event{Event: EventAIError, Payload: ErrorPayload{Message: genericErrorMessage}})
			continue
		}

		// Pipelines are independent: a second message does not wait for the
		// first, and append order under races is decided by the store.
		go g.orchestrator.Process(context.Background(), conn.ID, principal, payload)
	}
}
