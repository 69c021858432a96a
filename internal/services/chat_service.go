package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"finassist/internal/assistant"
	"finassist/internal/core"
	"finassist/internal/retry"
	"finassist/internal/storage"
)

const DefaultChatHistoryLimit = 50

// ChatService answers questions with the user's current month summary as
// context and keeps the conversation.
type ChatService struct {
	finance   *FinanceService
	store     storage.ChatStore
	generator assistant.TextGenerator
	retry     retry.Policy
}

// NewChatService wires the service. store and generator may be nil.
func NewChatService(finance *FinanceService, store storage.ChatStore, generator assistant.TextGenerator, policy retry.Policy) *ChatService {
	return &ChatService{finance: finance, store: store, generator: generator, retry: policy}
}

// FinancialContext renders the summary the assistant sees.
func FinancialContext(month core.Month, summary core.Summary) string {
	body, err := json.Marshal(summary)
	if err != nil {
		body = []byte("{}")
	}
	return fmt.Sprintf("User's Financial Status for %s: %s", month, body)
}

// Ask answers message for userID and stores both sides of the exchange.
func (s *ChatService) Ask(ctx context.Context, userID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", core.ErrEmptyMessage
	}

	if err := s.persist(ctx, userID, core.RoleUser, message); err != nil {
		return "", err
	}

	month := s.finance.CurrentMonth()
	summary := s.finance.SummaryOrDegraded(ctx, userID, month)
	reply := assistant.Respond(ctx, s.generator, message, FinancialContext(month, summary))

	if err := s.persist(ctx, userID, core.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *ChatService) persist(ctx context.Context, userID, role, content string) error {
	if s.store == nil {
		return nil
	}
	msg := core.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.finance.Now(),
	}
	err := s.retry.Do(ctx, "save chat message", func(ctx context.Context) error {
		return s.store.AppendChatMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("save %s message: %w: %w", role, ErrUnavailable, err)
	}
	return nil
}

// History returns up to limit messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]core.ChatMessage, error) {
	if s.store == nil {
		return []core.ChatMessage{}, nil
	}
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}
	msgs, err := s.store.ListChatMessages(ctx, userID, limit)
	if err != nil {
		return nil, unavailable("chat history", err)
	}
	return msgs, nil
}
