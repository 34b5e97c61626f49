package chat

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nyaysahay/nyaysahay/pkg/ai"
	"github.com/nyaysahay/nyaysahay/pkg/auth"
	"github.com/nyaysahay/nyaysahay/pkg/db/models"
	"github.com/nyaysahay/nyaysahay/pkg/memory"
)

type fakeStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*models.Conversation
	messages      []models.Message
	appendErrFor  string // role whose Append should fail
	appended      chan models.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[uuid.UUID]*models.Conversation{},
		appended:      make(chan models.Message, 16),
	}
}

func (s *fakeStore) addConversation(ownerID uuid.UUID, ownerKind string) uuid.UUID {
	id := uuid.New()
	s.conversations[id] = &models.Conversation{ID: id, OwnerID: ownerID, OwnerKind: ownerKind}
	return id
}

func (s *fakeStore) Get(_ context.Context, id, ownerID uuid.UUID, ownerKind string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation, ok := s.conversations[id]
	if !ok || conversation.OwnerID != ownerID || conversation.OwnerKind != ownerKind {
		return nil, gorm.ErrRecordNotFound
	}
	return conversation, nil
}

func (s *fakeStore) Append(_ context.Context, conversationID, authorID uuid.UUID, authorKind, content, role string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErrFor == role {
		return nil, errors.New("storage unavailable")
	}
	message := models.Message{
		ID:             uuid.New(),
		CreatedAt:      time.Now().Add(time.Duration(len(s.messages)) * time.Millisecond),
		ConversationID: conversationID,
		AuthorID:       authorID,
		AuthorKind:     authorKind,
		Content:        content,
		Role:           role,
	}
	s.messages = append(s.messages, message)
	s.appended <- message
	return &message, nil
}

func (s *fakeStore) Recent(_ context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matching := []models.Message{}
	for _, message := range s.messages {
		if message.ConversationID == conversationID {
			matching = append(matching, message)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].CreatedAt.After(matching[j].CreatedAt) })
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

func (s *fakeStore) messagesByRole(role string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	matching := []models.Message{}
	for _, message := range s.messages {
		if message.Role == role {
			matching = append(matching, message)
		}
	}
	return matching
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	mu               sync.Mutex
	upserts          []*models.MemoryRecord
	upserted         chan *models.MemoryRecord
	matches          []memory.Match
	queriedPrincipal uuid.UUID
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserted: make(chan *models.MemoryRecord, 16)}
}

func (ix *fakeIndex) Upsert(_ context.Context, record *models.MemoryRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.upserts = append(ix.upserts, record)
	ix.upserted <- record
	return nil
}

func (ix *fakeIndex) Query(_ context.Context, _ []float32, _ int, principalID uuid.UUID) ([]memory.Match, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.queriedPrincipal = principalID
	return ix.matches, nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	response  string
	err       error
	gotTurns  []ai.Turn
	gotSystem string
	gotTemp   float64
}

func (g *fakeGenerator) Generate(_ context.Context, turns []ai.Turn, systemInstruction string, temperature float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gotTurns = turns
	g.gotSystem = systemInstruction
	g.gotTemp = temperature
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type sentEvent struct {
	connID string
	event  Event
}

type fakeSink struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *fakeSink) Send(connID string, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{connID: connID, event: event})
}

func (s *fakeSink) sent() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEvent{}, s.events...)
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pipeline step")
		panic("unreachable")
	}
}

func testPrincipal(role string) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Name: "Asha", Role: role}
}

func TestProcessHappyPath(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	generator := &fakeGenerator{response: "You have a right to seek bail."}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)
	o.Process(context.Background(), "conn-1", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "What is my right to bail?",
	})

	// The response is delivered to the originating connection.
	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "conn-1", events[0].connID)
	assert.Equal(t, EventAIResponse, events[0].event.Event)
	payload, ok := events[0].event.Payload.(ResponsePayload)
	require.True(t, ok)
	assert.Equal(t, "You have a right to seek bail.", payload.Content)
	assert.Equal(t, conversationID.String(), payload.ConversationID)

	// Response persistence happens in the background; wait for both the
	// assistant turn and its memory record.
	waitFor(t, index.upserted) // user turn record
	for {
		record := waitFor(t, index.upserted)
		if record.Text == "You have a right to seek bail." {
			break
		}
	}

	userTurns := store.messagesByRole(models.MessageRoleUser)
	require.Len(t, userTurns, 1)
	assert.Equal(t, "What is my right to bail?", userTurns[0].Content)
	assert.Equal(t, principal.ID, userTurns[0].AuthorID)

	assistantTurns := store.messagesByRole(models.MessageRoleModel)
	require.Len(t, assistantTurns, 1)
	assert.Equal(t, conversationID, assistantTurns[0].ConversationID)

	index.mu.Lock()
	defer index.mu.Unlock()
	require.Len(t, index.upserts, 2)
	for _, record := range index.upserts {
		assert.Equal(t, principal.ID, record.PrincipalID)
		assert.Equal(t, conversationID, record.ConversationID)
	}
	assert.Equal(t, userTurns[0].ID, index.upserts[0].ID)

	// Memory queries are always filtered to the author's principal.
	assert.Equal(t, principal.ID, index.queriedPrincipal)

	// Generation parameters.
	assert.Equal(t, 0.6, generator.gotTemp)
	assert.Equal(t, personaInstruction, generator.gotSystem)
	require.NotEmpty(t, generator.gotTurns)
	assert.Equal(t, models.MessageRoleUser, generator.gotTurns[0].Role)
}

func TestProcessGenerationFailureKeepsUserTurn(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	generator := &fakeGenerator{err: errors.New("model overloaded")}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)
	o.Process(context.Background(), "conn-1", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "Hello?",
	})

	// Exactly one generic error event, nothing leaked.
	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIError, events[0].event.Event)
	payload, ok := events[0].event.Payload.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, genericErrorMessage, payload.Message)
	assert.NotContains(t, payload.Message, "overloaded")

	// The user's words survive; no assistant turn was created.
	assert.Len(t, store.messagesByRole(models.MessageRoleUser), 1)
	assert.Empty(t, store.messagesByRole(models.MessageRoleModel))
}

func TestProcessEmptyMemoryIndex(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex() // no matches
	generator := &fakeGenerator{response: "answer"}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleAdvocate)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)
	o.Process(context.Background(), "conn-9", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "Cite precedent on anticipatory bail",
	})

	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIResponse, events[0].event.Event)

	// The context block is present but carries no memories.
	require.NotEmpty(t, generator.gotTurns)
	assert.Contains(t, generator.gotTurns[0].Text, "Relevant information from past conversations:\n\n")
}

func TestProcessEmbeddingFailure(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	generator := &fakeGenerator{response: "unused"}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{err: errors.New("embedding api down")}, generator, sink)
	o.Process(context.Background(), "conn-1", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "Hello",
	})

	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIError, events[0].event.Event)

	// The persisted user turn is retained even though the pipeline failed.
	assert.Len(t, store.messagesByRole(models.MessageRoleUser), 1)
	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Empty(t, index.upserts)
}

func TestProcessRejectsMissingConversation(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}

	o := NewOrchestrator(store, newFakeIndex(), &fakeEmbedder{}, &fakeGenerator{}, sink)
	o.Process(context.Background(), "conn-1", testPrincipal(models.RoleClient), MessagePayload{
		ConversationID: "",
		Content:        "hello",
	})

	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIError, events[0].event.Event)
	assert.Empty(t, store.messagesByRole(models.MessageRoleUser))
}

func TestProcessRejectsForeignConversation(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}

	owner := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(owner.ID, owner.Role)

	intruder := testPrincipal(models.RoleClient)
	o := NewOrchestrator(store, newFakeIndex(), &fakeEmbedder{}, &fakeGenerator{}, sink)
	o.Process(context.Background(), "conn-2", intruder, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "let me in",
	})

	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIError, events[0].event.Event)
	assert.Empty(t, store.messages)
}

func TestProcessMultiTurnWindowOrdering(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	generator := &fakeGenerator{response: "second answer"}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	// Seed an existing conversation: assistant greeting, then one exchange.
	seed := []struct{ role, content string }{
		{models.MessageRoleModel, "welcome"},
		{models.MessageRoleUser, "first question"},
		{models.MessageRoleModel, "first answer"},
	}
	for _, turn := range seed {
		_, err := store.Append(context.Background(), conversationID, principal.ID, principal.Role, turn.content, turn.role)
		require.NoError(t, err)
	}

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)
	o.Process(context.Background(), "conn-1", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "second question",
	})

	events := sink.sent()
	require.Len(t, events, 1)
	require.Equal(t, EventAIResponse, events[0].event.Event)

	// The window is stored newest-first but must reach the generator oldest
	// first. The oldest turn here is a model turn, so a synthetic user turn
	// carries the context preamble in front of it.
	turns := generator.gotTurns
	require.Len(t, turns, 5)
	assert.Equal(t, models.MessageRoleUser, turns[0].Role)
	assert.Contains(t, turns[0].Text, "<|context|>")

	expected := []ai.Turn{
		{Role: models.MessageRoleModel, Text: "welcome"},
		{Role: models.MessageRoleUser, Text: "first question"},
		{Role: models.MessageRoleModel, Text: "first answer"},
		{Role: models.MessageRoleUser, Text: "second question"},
	}
	assert.Equal(t, expected, turns[1:])
}

func TestProcessTwoRapidMessages(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	generator := &fakeGenerator{response: "answer"}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)

	var wg sync.WaitGroup
	for _, content := range []string{"first message", "second message"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			o.Process(context.Background(), "conn-1", principal, MessagePayload{
				ConversationID: conversationID.String(),
				Content:        content,
			})
		}(content)
	}
	wg.Wait()

	// Each pipeline upserts its user turn and, in the background, its
	// assistant turn.
	for i := 0; i < 4; i++ {
		waitFor(t, index.upserted)
	}

	// Neither message was lost or duplicated, and each got its own reply.
	userTurns := store.messagesByRole(models.MessageRoleUser)
	require.Len(t, userTurns, 2)
	contents := []string{userTurns[0].Content, userTurns[1].Content}
	assert.ElementsMatch(t, []string{"first message", "second message"}, contents)

	assert.Len(t, store.messagesByRole(models.MessageRoleModel), 2)

	responses := 0
	for _, sent := range sink.sent() {
		if sent.event.Event == EventAIResponse {
			responses++
		}
	}
	assert.Equal(t, 2, responses)
}

func TestProcessDeliversBeforePersistenceFailure(t *testing.T) {
	store := newFakeStore()
	store.appendErrFor = models.MessageRoleModel // response persistence breaks
	index := newFakeIndex()
	generator := &fakeGenerator{response: "delivered anyway"}
	sink := &fakeSink{}

	principal := testPrincipal(models.RoleClient)
	conversationID := store.addConversation(principal.ID, principal.Role)

	o := NewOrchestrator(store, index, &fakeEmbedder{}, generator, sink)
	o.Process(context.Background(), "conn-1", principal, MessagePayload{
		ConversationID: conversationID.String(),
		Content:        "Will I still get an answer?",
	})

	// The client got the response and never sees the storage failure.
	events := sink.sent()
	require.Len(t, events, 1)
	assert.Equal(t, EventAIResponse, events[0].event.Event)
}
