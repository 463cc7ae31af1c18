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

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/prompts"
)

func testGeminiClient(baseURL string) *geminiClient {
	c := newGeminiClient(&config.GeminiConfig{
		Model:  "gemini-test",
		APIKey: "g-key",
	}, 5*time.Second)
	c.baseURL = baseURL
	return c
}

func TestGeminiChat(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotReq geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"answer"}]}}]}`)
	}))
	defer server.Close()

	out, err := testGeminiClient(server.URL).Chat(context.Background(), Request{
		System:   "be brief",
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "answer", out)

	// Key travels in the query, model and action in the path.
	require.Equal(t, "/gemini-test:generateContent", gotPath)
	require.Equal(t, "g-key", gotKey)

	// The system prompt folds into the first user turn.
	require.Len(t, gotReq.Contents, 1)
	require.Equal(t, "user", gotReq.Contents[0].Role)
	require.Contains(t, gotReq.Contents[0].Parts[0].Text, "be brief")
	require.Contains(t, gotReq.Contents[0].Parts[0].Text, "hi")
}

func TestGeminiRoleMapping(t *testing.T) {
	c := testGeminiClient("http://unused")
	req := c.buildRequest(Request{
		Messages: []prompts.Message{
			{Role: "user", Content: "q1"},
			{Role: "assistant", Content: "a1"},
			{Role: "user", Content: "q2"},
		},
	})
	require.Equal(t, "user", req.Contents[0].Role)
	require.Equal(t, "model", req.Contents[1].Role)
	require.Equal(t, "user", req.Contents[2].Role)
}

func TestGeminiChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gemini-test:streamGenerateContent", r.URL.Path)
		require.Equal(t, "sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"one ", "two"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":%q}]}}]}\n\n", piece)
		}
	}))
	defer server.Close()

	var streamed strings.Builder
	full, err := testGeminiClient(server.URL).ChatStream(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "one two", full)
	require.Equal(t, full, streamed.String())
}

func TestGeminiNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	_, err := testGeminiClient(server.URL).Chat(context.Background(), Request{
		Messages: []prompts.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
}
