// Package assistant wraps the text generation service used by chat and by
// the budget plan explanation.
package assistant

import (
	"context"
	"fmt"
	"strings"
)

// NotConfiguredMessage is returned by Respond when no generator is set up.
const NotConfiguredMessage = "AI service is not configured (Missing API Key)."

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextGeneratorFunc adapts a function to TextGenerator.
type TextGeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f TextGeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const promptTemplate = `You are a helpful and ethical Financial Literacy Assistant.
Your goal is to educate users about budgeting, saving, and managing their finances responsibly.

IMPORTANT RULES:
1. DO NOT give financial advice (investment, trading, crypto, specific stocks).
2. If asked for advice, politely decline and explain you are an educational tool.
3. Focus on concepts: budgeting methods (50/30/20), saving tips, explaining terms (APR, compound interest).
4. Be encouraging and beginner-friendly.
5. Use the user's provided financial context if available to give personalized *educational* insights, not advice.

Current Context:
%s

User Question: %s
`

// BuildPrompt renders the educational prompt around a question and an
// optional financial context.
func BuildPrompt(question, financialContext string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(financialContext), strings.TrimSpace(question))
}

// Respond asks gen the question with the financial context. It never
// fails: generator errors come back as a human readable message in place
// of an answer.
func Respond(ctx context.Context, gen TextGenerator, question, financialContext string) string {
	if gen == nil {
		return NotConfiguredMessage
	}
	text, err := gen.Generate(ctx, BuildPrompt(question, financialContext))
	if err != nil {
		return "Error communicating with AI: " + err.Error()
	}
	return text
}
