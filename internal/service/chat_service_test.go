package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chatgrid/chat-service/internal/ai"
	"github.com/chatgrid/chat-service/internal/domain"
	"github.com/chatgrid/chat-service/internal/registry"
	"github.com/chatgrid/chat-service/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	appended []domain.ChatMessage
	groupIDs []string
	err      error
}

func (s *fakeStore) AppendMessage(_ context.Context, groupID string, msg domain.ChatMessage) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, msg)
	s.groupIDs = append(s.groupIDs, groupID)
	return nil
}

type fakeCompleter struct {
	gotTranscript []ai.Turn
	reply         string
	err           error
	onCall        func()
}

func (c *fakeCompleter) Complete(_ context.Context, transcript []ai.Turn) (string, error) {
	c.gotTranscript = transcript
	if c.onCall != nil {
		c.onCall()
	}
	return c.reply, c.err
}

func connectedRegistry(userID, name string) *registry.Registry {
	reg := registry.New()
	reg.UpsertUser(userID, name)
	return reg
}

func TestPostUserMessage(t *testing.T) {
	store := &fakeStore{}
	reg := connectedRegistry("u1", "Alice")
	svc := NewChatService(store, reg, &fakeCompleter{})

	msg, err := svc.PostUserMessage(context.Background(), "g1", "u1", "  hello there  ")
	require.NoError(t, err)

	assert.Equal(t, "hello there", msg.Body)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "Alice", msg.DisplayName)
	assert.Empty(t, msg.Query)
	assert.False(t, msg.Timestamp.IsZero())

	require.Len(t, store.appended, 1)
	assert.Equal(t, "g1", store.groupIDs[0])
}

func TestPostUserMessageNotConnected(t *testing.T) {
	store := &fakeStore{}
	svc := NewChatService(store, registry.New(), &fakeCompleter{})

	_, err := svc.PostUserMessage(context.Background(), "g1", "ghost", "hi")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Empty(t, store.appended)
}

func TestPostUserMessageEmptyIsDiscarded(t *testing.T) {
	store := &fakeStore{}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), &fakeCompleter{})

	for _, text := range []string{"", "   ", "\n\t  "} {
		_, err := svc.PostUserMessage(context.Background(), "g1", "u1", text)
		assert.ErrorIs(t, err, domain.ErrEmptyMessage, "text %q", text)
	}
	assert.Empty(t, store.appended, "no durable append for empty frames")
}

func TestPostUserMessageTooLong(t *testing.T) {
	store := &fakeStore{}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), &fakeCompleter{})

	_, err := svc.PostUserMessage(context.Background(), "g1", "u1", strings.Repeat("x", maxMessageLen+1))
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
	assert.Empty(t, store.appended)
}

func TestPostUserMessageAppendFailureStillReturnsMessage(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), &fakeCompleter{})

	msg, err := svc.PostUserMessage(context.Background(), "g1", "u1", "hello")
	require.NoError(t, err, "append failure must not block broadcast")
	assert.Equal(t, "hello", msg.Body)
}

func TestAskAssistantTranscriptShape(t *testing.T) {
	store := &fakeStore{}
	comp := &fakeCompleter{reply: "42"}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), comp)

	msg, err := svc.AskAssistant(context.Background(), "g1", "u1",
		[]string{"first", "second"}, "what is the answer?")
	require.NoError(t, err)

	ts := comp.gotTranscript
	require.Len(t, ts, 4)
	assert.Equal(t, ai.RoleSystem, ts[0].Role)
	assert.Equal(t, ai.Turn{Role: ai.RoleUser, Content: "first"}, ts[1])
	assert.Equal(t, ai.Turn{Role: ai.RoleUser, Content: "second"}, ts[2])
	assert.Equal(t, ai.Turn{Role: ai.RoleUser, Content: "what is the answer?"}, ts[3])

	assert.Equal(t, "42", msg.Body)
	assert.Equal(t, "what is the answer?", msg.Query)
	assert.Equal(t, "Alice", msg.DisplayName)
	require.Len(t, store.appended, 1)
}

func TestAskAssistantNotConnected(t *testing.T) {
	svc := NewChatService(&fakeStore{}, registry.New(), &fakeCompleter{reply: "hi"})

	_, err := svc.AskAssistant(context.Background(), "g1", "ghost", nil, "q")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestAskAssistantUpstreamFailure(t *testing.T) {
	store := &fakeStore{}
	comp := &fakeCompleter{err: fmt.Errorf("%w: timeout", errs.ErrUpstream)}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), comp)

	_, err := svc.AskAssistant(context.Background(), "g1", "u1", nil, "q")
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Empty(t, store.appended, "no append on provider failure")
}

func TestAskAssistantDisconnectDuringCompletion(t *testing.T) {
	store := &fakeStore{}
	reg := connectedRegistry("u1", "Alice")
	// дисконнект происходит, пока идёт completion-вызов
	comp := &fakeCompleter{reply: "late", onCall: func() { reg.RemoveUser("u1") }}
	svc := NewChatService(store, reg, comp)

	_, err := svc.AskAssistant(context.Background(), "g1", "u1", nil, "q")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Empty(t, store.appended, "reply of a vanished session is dropped")
}

func TestAskAssistantEmptyReplyIsRecorded(t *testing.T) {
	store := &fakeStore{}
	svc := NewChatService(store, connectedRegistry("u1", "Alice"), &fakeCompleter{reply: ""})

	msg, err := svc.AskAssistant(context.Background(), "g1", "u1", nil, "q")
	require.NoError(t, err)
	assert.Empty(t, msg.Body)
	require.Len(t, store.appended, 1)
}
