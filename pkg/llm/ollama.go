package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

// OllamaClient talks to a local Ollama server's /api/generate endpoint.
// It is the backend the run command uses unless --llm-backend names
// another.
type OllamaClient struct {
	url    string
	model  string
	http   *http.Client
	policy RetryPolicy
}

// NewOllamaClient returns a client for the given server URL and model,
// with the given per-call timeout.
func NewOllamaClient(url, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		url:    url,
		model:  model,
		http:   &http.Client{Timeout: timeout},
		policy: DefaultRetryPolicy,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate issues a single /api/generate request and, if stream is true,
// accumulates the streamed chunks into one reply.
func (c *OllamaClient) Generate(ctx context.Context, systemPrompt, userPrompt string, stream bool) (string, error) {
	reqBody := ollamaRequest{Model: c.model, Prompt: userPrompt, System: systemPrompt, Stream: stream}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &wkerr.LlmError{Msg: "marshaling request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &wkerr.LlmError{Msg: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &wkerr.LlmError{Msg: "ollama request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &wkerr.LlmError{Msg: fmt.Sprintf("ollama returned %d: %s", resp.StatusCode, b)}
	}

	if !stream {
		var chunk ollamaChunk
		if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
			return "", &wkerr.LlmError{Msg: "decoding response", Err: err}
		}
		return chunk.Response, nil
	}

	var out bytes.Buffer
	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var chunk ollamaChunk
		if err := dec.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return "", &wkerr.LlmError{Msg: "decoding stream", Err: err}
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	return out.String(), nil
}

// GenerateWithRetry retries transport failures (anything but an HTTP
// error the server itself returned) with exponential backoff.
func (c *OllamaClient) GenerateWithRetry(ctx context.Context, systemPrompt, userPrompt string, stream bool, retries int) (string, error) {
	return withRetry(ctx, c.policy, retries, isOllamaTransportError, func() (string, error) {
		return c.Generate(ctx, systemPrompt, userPrompt, stream)
	})
}

func isOllamaTransportError(err error) bool {
	var le *wkerr.LlmError
	if e, ok := err.(*wkerr.LlmError); ok {
		le = e
	} else {
		return false
	}
	// A wrapped transport error (connection refused, timeout, DNS) has
	// Err set; a non-200 response from the server itself does not.
	return le.Err != nil
}
