package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	goption "google.golang.org/api/option"
)

const DefaultModel = "models/gemini-2.5-flash"

// Gemini generates text through the Generative Language API.
type Gemini struct {
	client *generativelanguage.GenerativeClient
	model  string
}

var _ TextGenerator = (*Gemini)(nil)

// NewGemini creates a REST client authenticated with an API key. Extra
// options (endpoint, HTTP client) are appended after the key.
func NewGemini(ctx context.Context, apiKey, model string, opts ...goption.ClientOption) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Google API key")
	}
	client, err := generativelanguage.NewGenerativeRESTClient(ctx,
		append([]goption.ClientOption{goption.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("generative language client: %w", err)
	}
	return &Gemini{client: client, model: modelName(model)}, nil
}

func modelName(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		return "models/" + model
	}
	return model
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, &generativelanguagepb.GenerateContentRequest{
		Model: g.model,
		Contents: []*generativelanguagepb.Content{{
			Role:  "user",
			Parts: []*generativelanguagepb.Part{{Data: &generativelanguagepb.Part_Text{Text: prompt}}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying HTTP transport.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *generativelanguagepb.GenerateContentResponse) (string, error) {
	if len(resp.GetCandidates()) == 0 || resp.GetCandidates()[0].GetContent() == nil {
		if reason := resp.GetPromptFeedback().GetBlockReason(); reason != generativelanguagepb.GenerateContentResponse_PromptFeedback_BLOCK_REASON_UNSPECIFIED {
			return "", fmt.Errorf("prompt blocked: %s", reason)
		}
		return "", errors.New("empty response from model")
	}
	var b strings.Builder
	for _, p := range resp.GetCandidates()[0].GetContent().GetParts() {
		b.WriteString(p.GetText())
	}
	return b.String(), nil
}
