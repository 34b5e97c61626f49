package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/ai"
	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
	"github.com/nyaysahay/nyaysahay/pkg/memory"
)

const (
	contextWindowSize     = 20
	memoryTopK            = 5
	generationTemperature = 0.6
	generationTimeout     = 45 * time.Second
)

// Pipeline states, used for logging and the duration metric's outcome label.
const (
	stateReceived           = "received"
	stateIngesting          = "ingesting"
	stateContextBuilding    = "context-building"
	stateGenerating         = "generating"
	stateDelivered          = "delivered"
	statePersistingResponse = "persisting-response"
	stateComplete           = "complete"
	stateFailed             = "failed"
)

// ConversationStore is the durable append-only message log.
type ConversationStore interface {
	Get(ctx context.Context, id, ownerID uuid.UUID, ownerKind string) (*models.Conversation, error)
	Append(ctx context.Context, conversationID, authorID uuid.UUID, authorKind, content, role string) (*models.Message, error)
	Recent(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)
}

// Embedder converts text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a reply from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, turns []ai.Turn, systemInstruction string, temperature float64) (string, error)
}

// MemoryIndex is the per-principal long-term memory store.
type MemoryIndex interface {
	Upsert(ctx context.Context, record *models.MemoryRecord) error
	Query(ctx context.Context, vector []float32, topK int, principalID uuid.UUID) ([]memory.Match, error)
}

// Sink delivers an event to exactly one connection.
type Sink interface {
	Send(connID string, event Event)
}

// Orchestrator runs the per-message pipeline: persist and embed the inbound
// message, write long-term memory, assemble context, generate a reply, deliver
// it, then persist the reply in the background.
type Orchestrator struct {
	store     ConversationStore
	index     MemoryIndex
	embedder  Embedder
	generator Generator
	sink      Sink
}

func NewOrchestrator(store ConversationStore, index MemoryIndex, embedder Embedder, generator Generator, sink Sink) *Orchestrator {
	return &Orchestrator{
		store:     store,
		index:     index,
		embedder:  embedder,
		generator: generator,
		sink:      sink,
	}
}

type embedResult struct {
	vector []float32
	err    error
}

// Process handles one inbound chat message. It never returns an error to the
// caller: failures surface as a single generic error event on the originating
// connection, with detail logged server-side. The context is deliberately not
// tied to the connection; work already dispatched runs to completion even if
// the client disconnects, and only the final delivery becomes a no-op.
func (o *Orchestrator) Process(ctx context.Context, connID string, principal *auth.Principal, payload MessagePayload) {
	start := time.Now()
	state := stateReceived
	defer func() {
		outcome := stateComplete
		if state == stateFailed {
			outcome = stateFailed
		}
		pipelineDurationMetric.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	logger := log.WithFields(log.Fields{
		"connection":   connID,
		"principal":    principal.ID,
		"conversation": payload.ConversationID,
	})

	fail := func(cause error, collaborator string) {
		state = stateFailed
		if collaborator != "" {
			upstreamFailuresMetric.WithLabelValues(collaborator).Inc()
		}
		logger.WithError(cause).Error("message pipeline failed")
		o.sink.Send(connID, Event{Event: EventAIError, Payload: ErrorPayload{Message: genericErrorMessage}})
	}

	conversationID, err := uuid.Parse(payload.ConversationID)
	if err != nil || payload.ConversationID == "" {
		fail(err, "")
		return
	}

	// Every message must reference a conversation owned by its author.
	if _, err := o.store.Get(ctx, conversationID, principal.ID, principal.Role); err != nil {
		fail(err, "")
		return
	}

	// Step 1: persist the user turn and compute its embedding concurrently.
	state = stateIngesting
	embedCh := make(chan embedResult, 1)
	go func() {
		vector, err := o.embedder.Embed(ctx, payload.Content)
		embedCh <- embedResult{vector: vector, err: err}
	}()

	message, appendErr := o.store.Append(ctx, conversationID, principal.ID, principal.Role, payload.Content, models.MessageRoleUser)
	embedded := <-embedCh
	if appendErr != nil {
		fail(appendErr, "store")
		return
	}
	messagesMetric.WithLabelValues(models.MessageRoleUser).Inc()
	if embedded.err != nil {
		// The user turn is already persisted and stays; their words are
		// never silently lost.
		fail(embedded.err, "embedding")
		return
	}

	// Step 2 (memory write) and step 3 (context reads) are both gated only on
	// step 1 and run concurrently with each other.
	state = stateContextBuilding
	upsertCh := make(chan error, 1)
	go func() {
		upsertCh <- o.index.Upsert(ctx, &models.MemoryRecord{
			ID:             message.ID,
			ConversationID: conversationID,
			PrincipalID:    principal.ID,
			PrincipalKind:  principal.Role,
			Text:           payload.Content,
			Embedding:      pgvector.NewVector(embedded.vector),
		})
	}()

	type queryResult struct {
		matches []memory.Match
		err     error
	}
	queryCh := make(chan queryResult, 1)
	go func() {
		matches, err := o.index.Query(ctx, embedded.vector, memoryTopK, principal.ID)
		queryCh <- queryResult{matches: matches, err: err}
	}()

	recent, recentErr := o.store.Recent(ctx, conversationID, contextWindowSize)
	queried := <-queryCh
	if err := <-upsertCh; err != nil {
		fail(err, "memory")
		return
	}
	if recentErr != nil {
		fail(recentErr, "store")
		return
	}
	if queried.err != nil {
		fail(queried.err, "memory")
		return
	}

	// Step 4: the recent window arrives newest-first; reverse it for the
	// prompt, then inject the memory context.
	window := make([]ai.Turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		window = append(window, ai.Turn{Role: recent[i].Role, Text: recent[i].Content})
	}

	memoryTexts := make([]string, 0, len(queried.matches))
	for _, match := range queried.matches {
		memoryTexts = append(memoryTexts, match.Text)
	}

	turns := assemblePrompt(window, contextBlock(principal.Role, memoryTexts))

	// Step 5: a single bounded generation call. No retry; the user's next
	// message is the retry mechanism.
	state = stateGenerating
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()
	response, err := o.generator.Generate(genCtx, turns, personaInstruction, generationTemperature)
	if err != nil {
		fail(err, "generation")
		return
	}

	// Step 6: deliver before persisting. A storage hiccup after this point
	// must not retract an answer the user already has.
	state = stateDelivered
	o.sink.Send(connID, Event{Event: EventAIResponse, Payload: ResponsePayload{
		Content:        response,
		ConversationID: payload.ConversationID,
	}})

	// Step 7: persist the assistant turn and its memory record, detached from
	// the success path. Failures here are logged, never surfaced.
	state = statePersistingResponse
	go o.persistResponse(context.Background(), logger, conversationID, principal, response)
	state = stateComplete
}

func (o *Orchestrator) persistResponse(ctx context.Context, logger *log.Entry, conversationID uuid.UUID, principal *auth.Principal, response string) {
	embedCh := make(chan embedResult, 1)
	go func() {
		vector, err := o.embedder.Embed(ctx, response)
		embedCh <- embedResult{vector: vector, err: err}
	}()

	message, err := o.store.Append(ctx, conversationID, principal.ID, principal.Role, response, models.MessageRoleModel)
	embedded := <-embedCh
	if err != nil {
		upstreamFailuresMetric.WithLabelValues("store").Inc()
		logger.WithError(err).Error("could not persist assistant response")
		return
	}
	messagesMetric.WithLabelValues(models.MessageRoleModel).Inc()
	if embedded.err != nil {
		upstreamFailuresMetric.WithLabelValues("embedding").Inc()
		logger.WithError(embedded.err).Error("could not embed assistant response")
		return
	}

	err = o.index.Upsert(ctx, &models.MemoryRecord{
		ID:             message.ID,
		ConversationID: conversationID,
		PrincipalID:    principal.ID,
		PrincipalKind:  principal.Role,
		Text:           response,
		Embedding:      pgvector.NewVector(embedded.vector),
	})
	if err != nil {
		upstreamFailuresMetric.WithLabelValues("memory").Inc()
		logger.WithError(err).Error("could not store assistant response memory")
	}
}
