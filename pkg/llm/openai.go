package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/workshopai/workshop/pkg/prompts"
)

// openAIClient speaks the chat-completions wire format, which covers OpenAI
// itself and every compatible server (vLLM, LM Studio, gateways).
type openAIClient struct {
	name        string
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type openAIOptions struct {
	name        string
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	headers     map[string]string
	timeout     time.Duration
}

func newOpenAIClient(opts openAIOptions) *openAIClient {
	return &openAIClient{
		name:        opts.name,
		endpoint:    joinBase(opts.baseURL, "/chat/completions"),
		model:       opts.model,
		apiKey:      opts.apiKey,
		temperature: opts.temperature,
		maxTokens:   opts.maxTokens,
		httpClient:  httpClientWithHeaders(opts.timeout, opts.headers),
	}
}

func (c *openAIClient) Name() string { return c.name }

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []prompts.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stream      bool              `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *openAIClient) buildRequest(req Request, stream bool) chatCompletionRequest {
	messages := make([]prompts.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, prompts.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	return chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	}
}

func (c *openAIClient) post(ctx context.Context, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, connError(c.name, c.endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: HTTP %d from %s: %s", c.name, resp.StatusCode, c.endpoint, string(errBody))
	}
	return resp, nil
}

// Chat performs one buffered chat-completions request.
func (c *openAIClient) Chat(ctx context.Context, req Request) (string, error) {
	resp, err := c.post(ctx, c.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: malformed response: %w", c.name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s", c.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response contained no choices", c.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

// ChatStream performs one streaming request over SSE.
func (c *openAIClient) ChatStream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	resp, err := c.post(ctx, c.buildRequest(req, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full bytes.Buffer
	err = readSSE(resp.Body, func(data string) error {
		if data == "[DONE]" {
			return nil
		}
		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keep-alive frames rather than failing the stream.
			return nil
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			return nil
		}
		full.WriteString(content)
		if onChunk != nil {
			return onChunk(content)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("%s: stream failed: %w", c.name, err)
	}
	return full.String(), nil
}
