package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ollamaClient talks to an Ollama server (or any custom server speaking the
// Ollama wire format). Single-turn requests use /api/generate; conversations
// use /api/chat, matching how the endpoints are meant to be used.
type ollamaClient struct {
	api      *ollama.Client
	model    string
	endpoint string
}

func newOllamaClient(baseURL, model string, headers map[string]string, timeout time.Duration) (*ollamaClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base_url %q: %w", baseURL, err)
	}
	return &ollamaClient{
		api:      ollama.NewClient(base, httpClientWithHeaders(timeout, headers)),
		model:    model,
		endpoint: baseURL,
	}, nil
}

func (c *ollamaClient) Name() string { return "ollama" }

func (c *ollamaClient) options(req Request) map[string]interface{} {
	opts := map[string]interface{}{}
	if req.Temperature != 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		opts["num_predict"] = req.MaxTokens
	}
	return opts
}

// singleTurn reports whether the request is a lone user prompt, which maps
// onto /api/generate instead of /api/chat.
func singleTurn(req Request) (string, bool) {
	if len(req.Messages) == 1 && req.Messages[0].Role == "user" {
		return req.Messages[0].Content, true
	}
	return "", false
}

func toOllamaMessages(req Request) []ollama.Message {
	messages := make([]ollama.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	return messages
}

func (c *ollamaClient) Chat(ctx context.Context, req Request) (string, error) {
	return c.run(ctx, req, false, nil)
}

func (c *ollamaClient) ChatStream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	return c.run(ctx, req, true, onChunk)
}

func (c *ollamaClient) run(ctx context.Context, req Request, stream bool, onChunk func(string) error) (string, error) {
	var full strings.Builder
	emit := func(content string) error {
		if content == "" {
			return nil
		}
		full.WriteString(content)
		if stream && onChunk != nil {
			return onChunk(content)
		}
		return nil
	}

	var err error
	if prompt, ok := singleTurn(req); ok {
		genReq := &ollama.GenerateRequest{
			Model:   c.model,
			Prompt:  prompt,
			System:  req.System,
			Stream:  &stream,
			Options: c.options(req),
		}
		err = c.api.Generate(ctx, genReq, func(res ollama.GenerateResponse) error {
			return emit(res.Response)
		})
	} else {
		chatReq := &ollama.ChatRequest{
			Model:    c.model,
			Messages: toOllamaMessages(req),
			Stream:   &stream,
			Options:  c.options(req),
		}
		err = c.api.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
			return emit(res.Message.Content)
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), connError(c.Name(), c.endpoint, err)
	}
	return full.String(), nil
}
