package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finassist/internal/assistant"
	"finassist/internal/core"
	"finassist/internal/retry"
	"finassist/internal/storage/memory"
)

// flakyChatStore fails the first n appends with a transient error.
type flakyChatStore struct {
	*memory.Store
	failures int
	calls    int
}

func (s *flakyChatStore) AppendChatMessage(ctx context.Context, m core.ChatMessage) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("connection reset by peer")
	}
	return s.Store.AppendChatMessage(ctx, m)
}

var fastRetry = retry.Policy{Attempts: 3, Backoff: time.Millisecond}

func TestAskUsesSummaryContext(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	finance := newTestFinance(store, nil, nil)
	mustIncome(t, finance, "u", "2000", "Salary", core.NewDate(2025, 1, 3))

	var prompt string
	gen := assistant.TextGeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Save a bit more.", nil
	})
	chat := NewChatService(finance, store, gen, fastRetry)

	reply, err := chat.Ask(ctx, "u", "  How am I doing?  ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply != "Save a bit more." {
		t.Fatalf("reply = %q", reply)
	}
	for _, want := range []string{"How am I doing?", "2025-01", `"total_income":2000`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	history, err := chat.History(ctx, "u", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Role != core.RoleUser || history[1].Role != core.RoleAssistant {
		t.Fatalf("history = %+v", history)
	}
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	chat := NewChatService(newTestFinance(memory.New(), nil, nil), nil, nil, fastRetry)
	if _, err := chat.Ask(context.Background(), "u", "   "); !errors.Is(err, core.ErrEmptyMessage) {
		t.Fatalf("err = %v", err)
	}
}

func TestAskWithoutGenerator(t *testing.T) {
	chat := NewChatService(newTestFinance(nil, nil, nil), nil, nil, fastRetry)
	reply, err := chat.Ask(context.Background(), "u", "hello")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply != assistant.NotConfiguredMessage {
		t.Fatalf("reply = %q", reply)
	}
}

func TestAskGeneratorErrorIsReply(t *testing.T) {
	gen := assistant.TextGeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	chat := NewChatService(newTestFinance(failingStore{memory.New()}, nil, nil), nil, gen, fastRetry)
	reply, err := chat.Ask(context.Background(), "u", "hello")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply != "Error communicating with AI: quota exceeded" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestAskRetriesTransientStoreErrors(t *testing.T) {
	store := &flakyChatStore{Store: memory.New(), failures: 2}
	gen := assistant.TextGeneratorFunc(func(context.Context, string) (string, error) { return "ok", nil })
	chat := NewChatService(newTestFinance(store.Store, nil, nil), store, gen, fastRetry)

	if _, err := chat.Ask(context.Background(), "u", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if store.calls != 4 {
		t.Fatalf("append calls = %d, want 4", store.calls)
	}

	store.failures, store.calls = 10, 0
	if _, err := chat.Ask(context.Background(), "u", "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
