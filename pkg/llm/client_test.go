package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/prompts"
)

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"empty provider", &config.Config{}},
		{"unknown provider", &config.Config{Provider: "mystery"}},
		{"openai without key", &config.Config{Provider: config.ProviderOpenAI, OpenAI: &config.OpenAIConfig{Model: "gpt-4o"}}},
		{"ollama without model", &config.Config{Provider: config.ProviderOllama, Ollama: &config.OllamaConfig{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestNewClientSelectsProvider(t *testing.T) {
	c, err := NewClient(&config.Config{
		Provider: config.ProviderOpenAI,
		OpenAI:   &config.OpenAIConfig{Model: "gpt-4o", APIKey: "sk"},
	})
	require.NoError(t, err)
	require.Equal(t, "openai", c.Name())

	c, err = NewClient(&config.Config{
		Provider: config.ProviderGemini,
		Gemini:   &config.GeminiConfig{Model: "gemini-1.5-pro", APIKey: "g"},
	})
	require.NoError(t, err)
	require.Equal(t, "gemini", c.Name())
}

func TestNewClientCustomFormatRouting(t *testing.T) {
	// Default custom format speaks chat-completions.
	c, err := NewClient(&config.Config{
		Provider: config.ProviderCustom,
		Custom:   &config.CustomConfig{BaseURL: "http://localhost:9999/v1", Model: "m"},
	})
	require.NoError(t, err)
	require.Equal(t, "custom", c.Name())
	require.IsType(t, &openAIClient{}, c)

	// api_format=ollama switches the wire codec.
	c, err = NewClient(&config.Config{
		Provider: config.ProviderCustom,
		Custom:   &config.CustomConfig{BaseURL: "http://localhost:9999", Model: "m", APIFormat: "ollama"},
	})
	require.NoError(t, err)
	require.IsType(t, &ollamaClient{}, c)
}

func TestChatWithRetryRecoversFromTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Kill the connection to force a transport-level error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"second try"}}]}`)
	}))
	defer server.Close()

	out, err := ChatWithRetry(context.Background(), testOpenAIClient(server.URL), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "second try", out)
	require.Equal(t, 2, attempts)
}

func TestChatWithRetryDoesNotRetryHTTPErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := ChatWithRetry(context.Background(), testOpenAIClient(server.URL), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestJoinBase(t *testing.T) {
	require.Equal(t, "http://x/v1/chat/completions", joinBase("http://x/v1", "/chat/completions"))
	require.Equal(t, "http://x/v1/chat/completions", joinBase("http://x/v1/", "/chat/completions"))
}

func TestHeaderTransport(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Custom")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer server.Close()

	c := newOpenAIClient(openAIOptions{
		name:    "custom",
		baseURL: server.URL,
		model:   "m",
		headers: map[string]string{"X-Custom": "routing-value"},
		timeout: 0,
	})
	_, err := c.Chat(context.Background(), Request{Messages: []prompts.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	require.Equal(t, "routing-value", got)
}
