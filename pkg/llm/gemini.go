package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/workshopai/workshop/pkg/config"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiClient speaks Google's generate-content format. The API key travels
// in the URL query, not in a header.
type geminiClient struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func newGeminiClient(cfg *config.GeminiConfig, timeout time.Duration) *geminiClient {
	return &geminiClient{
		baseURL:     defaultGeminiBase,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *geminiClient) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildRequest converts the chat into Gemini contents. Gemini's roles are
// "user" and "model"; the system prompt is folded into the first user turn.
func (c *geminiClient) buildRequest(req Request) geminiRequest {
	var out geminiRequest
	system := req.System
	for _, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		text := m.Content
		if system != "" && role == "user" {
			text = system + "\n\n" + text
			system = ""
		}
		out.Contents = append(out.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: text}},
		})
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	out.GenerationConfig.Temperature = temperature
	out.GenerationConfig.MaxOutputTokens = maxTokens
	return out
}

func (c *geminiClient) endpoint(action string, stream bool) string {
	q := url.Values{"key": {c.apiKey}}
	if stream {
		q.Set("alt", "sse")
	}
	return fmt.Sprintf("%s/%s:%s?%s", strings.TrimRight(c.baseURL, "/"), c.model, action, q.Encode())
}

func (c *geminiClient) post(ctx context.Context, endpoint string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, connError(c.Name(), c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: HTTP %d: %s", c.Name(), resp.StatusCode, string(errBody))
	}
	return resp, nil
}

func firstCandidateText(parsed geminiResponse) string {
	if len(parsed.Candidates) == 0 {
		return ""
	}
	parts := parsed.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

func (c *geminiClient) Chat(ctx context.Context, req Request) (string, error) {
	resp, err := c.post(ctx, c.endpoint("generateContent", false), c.buildRequest(req))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: malformed response: %w", c.Name(), err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s", c.Name(), parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("%s: response contained no candidates", c.Name())
	}
	return firstCandidateText(parsed), nil
}

func (c *geminiClient) ChatStream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	resp, err := c.post(ctx, c.endpoint("streamGenerateContent", true), c.buildRequest(req))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full bytes.Buffer
	err = readSSE(resp.Body, func(data string) error {
		var parsed geminiResponse
		if err := json.Unmarshal([]byte(data), &parsed); err != nil {
			return nil // skip malformed frames
		}
		text := firstCandidateText(parsed)
		if text == "" {
			return nil
		}
		full.WriteString(text)
		if onChunk != nil {
			return onChunk(text)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("%s: stream failed: %w", c.Name(), err)
	}
	return full.String(), nil
}
