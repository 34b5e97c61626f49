package chat

import "encoding/json"

// Websocket event names. These match what the frontend emits and listens for.
const (
	EventAIMessage  = "ai-message"
	EventAIResponse = "ai-response"
	EventAIError    = "ai-error"
)

// Event is the outbound envelope written to a connection.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// inboundEvent defers payload decoding until the event name is known.
type inboundEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// MessagePayload is an inbound chat message. The wire field for the
// conversation id is "chat".
type MessagePayload struct {
	ConversationID string `json:"chat"`
	Content        string `json:"content"`
}

// ResponsePayload is a generated assistant reply, addressed to the
// originating connection only.
type ResponsePayload struct {
	Content        string `json:"content"`
	ConversationID string `json:"chat"`
}

// ErrorPayload carries the generic failure message. Internal detail never
// leaves the server.
type ErrorPayload struct {
	Message string `json:"message"`
}

// genericErrorMessage is the only error text a client ever sees from the
// pipeline.
const genericErrorMessage = "I apologize, but I encountered an error. Please try again."
