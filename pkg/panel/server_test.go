package panel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/logging"
)

// chunkedClient streams a fixed response in small pieces.
type chunkedClient struct {
	chunks []string
	err    error
}

func (c *chunkedClient) Name() string { return "fake" }

func (c *chunkedClient) Chat(ctx context.Context, req llm.Request) (string, error) {
	return strings.Join(c.chunks, ""), c.err
}

func (c *chunkedClient) ChatStream(ctx context.Context, req llm.Request, onChunk func(string) error) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	var full strings.Builder
	for _, chunk := range c.chunks {
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

func dialTestSocket(t *testing.T, client llm.Client) (*Server, *websocket.Conn) {
	t.Helper()
	root := t.TempDir()
	s := NewServer(config.Default(), client, logging.New(root), root, "ctx", 0)

	ts := httptest.NewServer(http.HandlerFunc(s.handleSocket))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame serverFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestSocketSendsHistoryFirst(t *testing.T) {
	_, conn := dialTestSocket(t, &chunkedClient{})

	frame := readFrame(t, conn)
	require.Equal(t, "history", frame.Type)
	require.Empty(t, frame.Turns)
}

func TestChatStreamsChunksThenDone(t *testing.T) {
	s, conn := dialTestSocket(t, &chunkedClient{chunks: []string{"Hel", "lo"}})
	readFrame(t, conn) // history

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "chat", Message: "hi"}))

	var pieces []string
	for {
		frame := readFrame(t, conn)
		if frame.Type == "done" {
			break
		}
		require.Equal(t, "chunk", frame.Type)
		pieces = append(pieces, frame.Content)
	}
	require.Equal(t, "Hello", strings.Join(pieces, ""))

	// Both turns are persisted.
	s.mu.Lock()
	turns := len(s.session.Turns)
	s.mu.Unlock()
	require.Equal(t, 2, turns)
}

func TestChatErrorFrame(t *testing.T) {
	_, conn := dialTestSocket(t, &chunkedClient{err: context.DeadlineExceeded})
	readFrame(t, conn) // history

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "chat", Message: "hi"}))
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	require.NotEmpty(t, frame.Content)
}

func TestClearFrameEmptiesHistory(t *testing.T) {
	s, conn := dialTestSocket(t, &chunkedClient{chunks: []string{"x"}})
	readFrame(t, conn) // history

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "chat", Message: "hi"}))
	for {
		if readFrame(t, conn).Type == "done" {
			break
		}
	}

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "clear"}))
	frame := readFrame(t, conn)
	require.Equal(t, "history", frame.Type)
	require.Empty(t, frame.Turns)

	s.mu.Lock()
	turns := len(s.session.Turns)
	s.mu.Unlock()
	require.Zero(t, turns)
}

func TestBlankChatIgnored(t *testing.T) {
	_, conn := dialTestSocket(t, &chunkedClient{chunks: []string{"x"}})
	readFrame(t, conn) // history

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "chat", Message: "  "}))
	require.NoError(t, conn.WriteJSON(clientFrame{Type: "chat", Message: "real"}))

	// The first frame after the blank must already answer "real".
	frame := readFrame(t, conn)
	require.Equal(t, "chunk", frame.Type)
}
