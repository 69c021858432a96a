// Package cache memoizes generated text. Records and summaries are never
// cached; only prompts that are a pure function of their inputs, such as
// budget plan explanations, go through here.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"finassist/internal/assistant"
)

const (
	DefaultSize = 256
	DefaultTTL  = 24 * time.Hour
)

// Generator wraps a TextGenerator and reuses replies to identical prompts.
// Errors and blank replies are not cached.
type Generator struct {
	next    assistant.TextGenerator
	entries *LRUCache[string]
}

var _ assistant.TextGenerator = (*Generator)(nil)

func NewGenerator(next assistant.TextGenerator, size int, ttl time.Duration) *Generator {
	return &Generator{next: next, entries: NewLRUCache[string](size, ttl)}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if text, ok := g.entries.Get(key); ok {
		slog.DebugContext(ctx, "Generated text served from cache", "key", key[:12])
		return text, nil
	}

	text, err := g.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		g.entries.Set(key, text)
	}
	return text, nil
}

// Stats reports the underlying cache counters.
func (g *Generator) Stats() Stats { return g.entries.Stats() }

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
