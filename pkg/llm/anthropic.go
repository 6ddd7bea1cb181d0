package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// AnthropicClient generates via the Claude Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	policy    RetryPolicy
}

// NewAnthropicClient returns a client for the given API key and model.
func NewAnthropicClient(apiKey, model string, maxTokens int64) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
		policy:    DefaultRetryPolicy,
	}
}

// Generate sends a single user message, with systemPrompt attached as the
// Messages API's system parameter. stream is accepted for interface
// symmetry with other backends but ignored: the reply is always
// accumulated into one string.
func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", &wkerr.LlmError{Msg: "anthropic request failed", Err: err}
	}

	var out string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			out += block.Text
		}
	}
	if out == "" {
		return "", &wkerr.LlmError{Msg: "anthropic returned no text content"}
	}
	return out, nil
}

// GenerateWithRetry retries every error the SDK returns, HTTP error
// responses included, with exponential backoff; an empty response is not
// retried.
func (c *AnthropicClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, stream bool, retries int) (string, error) {
	return withRetry(ctx, c.policy, retries, isAnthropicTransportError, func() (string, error) {
		return c.Generate(ctx, systemPrompt, userPrompt, stream)
	})
}

func isAnthropicTransportError(err error) bool {
	le, ok := err.(*wkerr.LlmError)
	if !ok {
		return false
	}
	return le.Err != nil
}
