package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/workshopai/workshop/pkg/prompts"
)

func testOpenAIClient(baseURL string) *openAIClient {
	return newOpenAIClient(openAIOptions{
		name:    "openai",
		baseURL: baseURL,
		model:   "test-model",
		apiKey:  "sk-test",
		timeout: 5 * time.Second,
	})
}

func TestOpenAIChat(t *testing.T) {
	var gotAuth string
	var gotReq chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello there"}}]}`)
	}))
	defer server.Close()

	c := testOpenAIClient(server.URL)
	out, err := c.Chat(context.Background(), Request{
		System:   "be helpful",
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", out)
	require.Equal(t, "Bearer sk-test", gotAuth)

	require.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, "be helpful", gotReq.Messages[0].Content)
}

func TestOpenAIChatHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer server.Close()

	_, err := testOpenAIClient(server.URL).Chat(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, err.Error(), "bad key")
}

func TestOpenAIChatStreamConcatenatesChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Hel", "lo ", "world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var streamed strings.Builder
	full, err := testOpenAIClient(server.URL).ChatStream(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hello world", full)
	// The concatenation of emitted chunks equals the returned text.
	require.Equal(t, full, streamed.String())
}

func TestOpenAIChatStreamCallbackAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 10; i++ {
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		}
	}))
	defer server.Close()

	calls := 0
	_, err := testOpenAIClient(server.URL).ChatStream(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	}, func(chunk string) error {
		calls++
		if calls == 2 {
			return fmt.Errorf("stop")
		}
		return nil
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
}

func TestOpenAIChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	_, err := testOpenAIClient(server.URL).Chat(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
}

func TestReadSSEMultilineData(t *testing.T) {
	input := "data: line one\ndata: line two\n\ndata: second\n\n"
	var frames []string
	err := readSSE(strings.NewReader(input), func(data string) error {
		frames = append(frames, data)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"line one\nline two", "second"}, frames)
}

func TestReadSSEFlushesAtEOF(t *testing.T) {
	var frames []string
	err := readSSE(strings.NewReader("data: tail"), func(data string) error {
		frames = append(frames, data)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"tail"}, frames)
}
