package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundMessageEnvelope(t *testing.T) {
	raw := []byte(`{"event":"ai-message","payload":{"chat":"b2c7a0de-8e0e-4e3c-9af8-1c2d3e4f5a6b","content":"what are my rights?"}}`)

	envelope := inboundEvent{}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, EventAIMessage, envelope.Event)

	payload := MessagePayload{}
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, "b2c7a0de-8e0e-4e3c-9af8-1c2d3e4f5a6b", payload.ConversationID)
	assert.Equal(t, "what are my rights?", payload.Content)
}

func TestOutboundResponseEnvelope(t *testing.T) {
	raw, err := json.Marshal(Event{
		Event: EventAIResponse,
		Payload: ResponsePayload{
			Content:        "here is what the law says",
			ConversationID: "b2c7a0de-8e0e-4e3c-9af8-1c2d3e4f5a6b",
		},
	})
	require.NoError(t, err)

	// The conversation id travels under the "chat" key on the wire.
	assert.JSONEq(t, `{
		"event": "ai-response",
		"payload": {
			"content": "here is what the law says",
			"chat": "b2c7a0de-8e0e-4e3c-9af8-1c2d3e4f5a6b"
		}
	}`, string(raw))
}
