package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatgrid/chat-service/internal/ai"
	"github.com/chatgrid/chat-service/internal/domain"
	"github.com/chatgrid/chat-service/internal/registry"

	"github.com/samber/lo"
)

// systemPrompt — фиксированная первая реплика транскрипта ассистента.
const systemPrompt = "You are a helpful assistant in a group chat. " +
	"Answer the user's question concisely using the conversation so far as context."

// todo: вынести в конфиг
const maxMessageLen = 4000

type MessageStore interface {
	AppendMessage(ctx context.Context, groupID string, msg domain.ChatMessage) error
}

type ChatService struct {
	store     MessageStore
	reg       *registry.Registry
	completer ai.Completer
}

func NewChatService(store MessageStore, reg *registry.Registry, completer ai.Completer) *ChatService {
	return &ChatService{store: store, reg: reg, completer: completer}
}

// PostUserMessage строит каноническую запись сообщения и дописывает её в
// durable-историю. Ошибка записи логируется и не прерывает поток: сообщение
// всё равно уйдёт в broadcast (принятое окно рассинхронизации).
func (s *ChatService) PostUserMessage(ctx context.Context, groupID, userID, text string) (*domain.ChatMessage, error) {
	name, ok := s.reg.DisplayName(userID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(text) > maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}

	msg := domain.ChatMessage{
		UserID:      userID,
		DisplayName: name,
		Body:        text,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.store.AppendMessage(ctx, groupID, msg); err != nil {
		slog.Warn("chat append failed", "group", groupID, "user", userID, "err", err)
	}
	return &msg, nil
}

// AskAssistant собирает транскрипт из переданной переписки, получает ответ
// у completion-провайдера и дописывает его в историю. При ошибке провайдера
// ничего не записывается и не рассылается.
//
// Каждая прошлая реплика уходит ролью user независимо от автора — реплики
// самого ассистента в транскрипте не восстанавливаются. Осознанно не чиним.
func (s *ChatService) AskAssistant(ctx context.Context, groupID, userID string, prior []string, query string) (*domain.ChatMessage, error) {
	if !s.reg.IsConnected(userID) {
		return nil, domain.ErrNotConnected
	}

	transcript := make([]ai.Turn, 0, len(prior)+2)
	transcript = append(transcript, ai.Turn{Role: ai.RoleSystem, Content: systemPrompt})
	transcript = append(transcript, lo.Map(prior, func(m string, _ int) ai.Turn {
		return ai.Turn{Role: ai.RoleUser, Content: m}
	})...)
	transcript = append(transcript, ai.Turn{Role: ai.RoleUser, Content: query})

	reply, err := s.completer.Complete(ctx, transcript)
	if err != nil {
		return nil, err
	}

	// за время completion-вызова пользователь мог отключиться;
	// состояние перепроверяем, а не переносим через блокирующий вызов
	name, ok := s.reg.DisplayName(userID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	msg := domain.ChatMessage{
		UserID:      userID,
		DisplayName: name,
		Query:       query,
		Body:        reply,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.store.AppendMessage(ctx, groupID, msg); err != nil {
		slog.Warn("assistant append failed", "group", groupID, "user", userID, "err", err)
	}
	return &msg, nil
}
