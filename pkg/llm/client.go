// Package llm holds the provider clients. Each provider implements Client;
// the factory picks one from the validated configuration. Streaming is a
// cancellable producer of text chunks: the caller supplies the chunk sink
// and owns whatever surface displays them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/prompts"
)

// Request is one chat exchange. Messages carry the conversation; System is
// prepended in whatever form the provider's wire format expects.
type Request struct {
	System      string
	Messages    []prompts.Message
	Temperature float64
	MaxTokens   int
}

// Client is a single-exchange LLM client.
type Client interface {
	// Name identifies the provider for logs and error messages.
	Name() string

	// Chat performs one buffered request and returns the full response text.
	Chat(ctx context.Context, req Request) (string, error)

	// ChatStream performs one streaming request, calling onChunk for each
	// text fragment as it arrives. The returned string is the concatenation
	// of every emitted chunk. A non-nil error from onChunk aborts the stream.
	ChatStream(ctx context.Context, req Request, onChunk func(string) error) (string, error)
}

// NewClient builds the provider client selected by cfg. The configuration
// is validated first so an incomplete config never produces a request.
func NewClient(cfg *config.Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderOllama:
		return newOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, nil, cfg.ProviderTimeout())
	case config.ProviderOpenAI:
		base := cfg.OpenAI.BaseURL
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return newOpenAIClient(openAIOptions{
			name:        "openai",
			baseURL:     base,
			model:       cfg.OpenAI.Model,
			apiKey:      cfg.OpenAI.APIKey,
			temperature: cfg.OpenAI.Temperature,
			maxTokens:   cfg.OpenAI.MaxTokens,
			timeout:     cfg.ProviderTimeout(),
		}), nil
	case config.ProviderGemini:
		return newGeminiClient(cfg.Gemini, cfg.ProviderTimeout()), nil
	case config.ProviderCustom:
		if cfg.Custom.APIFormat == "ollama" {
			return newOllamaClient(cfg.Custom.BaseURL, cfg.Custom.Model, cfg.Custom.Headers, cfg.ProviderTimeout())
		}
		return newOpenAIClient(openAIOptions{
			name:    "custom",
			baseURL: cfg.Custom.BaseURL,
			model:   cfg.Custom.Model,
			apiKey:  cfg.Custom.APIKey,
			headers: cfg.Custom.Headers,
			timeout: cfg.ProviderTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown ai_provider %q", cfg.Provider)
	}
}

// ChatWithRetry wraps a buffered call with a single retry on transient
// network failure. Streaming calls are never retried: chunks may already
// have been shown.
func ChatWithRetry(ctx context.Context, c Client, req Request) (string, error) {
	out, err := c.Chat(ctx, req)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		time.Sleep(500 * time.Millisecond)
		return c.Chat(ctx, req)
	}
	return out, err
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return false
}

// headerTransport adds fixed headers to every request, for custom servers
// that need auth or routing headers outside the standard Authorization.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func httpClientWithHeaders(timeout time.Duration, headers map[string]string) *http.Client {
	c := &http.Client{Timeout: timeout}
	if len(headers) > 0 {
		c.Transport = &headerTransport{headers: headers}
	}
	return c
}

// connError wraps transport failures with the endpoint so the user message
// says where the request was going.
func connError(name, endpoint string, err error) error {
	return fmt.Errorf("%s: connection to %s failed: %w", name, endpoint, err)
}

// joinBase joins a base URL and a path without doubling slashes.
func joinBase(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
