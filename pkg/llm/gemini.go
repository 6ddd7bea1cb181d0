package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// GeminiClient generates via Google's genai SDK against a GenerateContent
// model.
type GeminiClient struct {
	client *genai.Client
	model  string
	policy RetryPolicy
}

// NewGeminiClient builds a client for the given API key and model, using
// the public Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &wkerr.LlmError{Msg: "initializing genai client", Err: err}
	}
	return &GeminiClient{client: client, model: model, policy: DefaultRetryPolicy}, nil
}

// Generate sends a single user turn, with systemPrompt set as the request's
// system instruction. stream is accepted for interface symmetry but
// ignored: GenerateContent always returns a complete response.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error) {
	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(userPrompt)}},
	}

	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", &wkerr.LlmError{Msg: "gemini request failed", Err: err}
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if out.Len() == 0 {
		return "", &wkerr.LlmError{Msg: "gemini returned no text content"}
	}
	return out.String(), nil
}

// GenerateWithRetry retries every error the SDK returns, HTTP error
// responses included, with exponential backoff; an empty response is not
// retried.
func (c *GeminiClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, stream bool, retries int) (string, error) {
	return withRetry(ctx, c.policy, retries, isGeminiTransportError, func() (string, error) {
		return c.Generate(ctx, systemPrompt, userPrompt, stream)
	})
}

func isGeminiTransportError(err error) bool {
	le, ok := err.(*wkerr.LlmError)
	if !ok {
		return false
	}
	return le.Err != nil
}
