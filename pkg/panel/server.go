// Package panel serves a local browser chat panel over HTTP and websocket.
// The page streams model output chunk by chunk and shares the persisted
// chat history with the CLI chat command.
package panel

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/history"
	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/logging"
	"github.com/workshopai/workshop/pkg/prompts"
)

//go:embed static/index.html
var staticFiles embed.FS

const defaultPort = 48600

// Server is the chat panel HTTP server. One server handles one project.
type Server struct {
	cfg            *config.Config
	client         llm.Client
	logger         *logging.Logger
	projectRoot    string
	contextSummary string
	port           int

	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	session *history.Session
	running bool
}

func NewServer(cfg *config.Config, client llm.Client, logger *logging.Logger, projectRoot, contextSummary string, port int) *Server {
	if port == 0 {
		port = defaultPort
	}
	return &Server{
		cfg:            cfg,
		client:         client,
		logger:         logger,
		projectRoot:    projectRoot,
		contextSummary: contextSummary,
		port:           port,
		session:        history.Load(projectRoot),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
			},
		},
	}
}

// Port returns the port the panel listens on.
func (s *Server) Port() int { return s.port }

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("panel server is already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"provider": s.client.Name(),
			"port":     s.port,
		})
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("panel port %d unavailable: %w", s.port, err)
	}

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	s.logger.Logf("panel: listening on http://%s", s.server.Addr)
	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, allowing in-flight responses a short grace
// period.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "panel assets missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// inbound frames from the page.
type clientFrame struct {
	Type    string `json:"type"` // "chat" or "clear"
	Message string `json:"message,omitempty"`
}

// outbound frames to the page: chunk, done, error, history.
type serverFrame struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Turns   []history.Turn `json:"turns,omitempty"`
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.LogError(fmt.Errorf("panel: websocket upgrade failed: %w", err))
		return
	}
	sc := newSafeConn(conn)
	defer sc.Close()

	// Closing the socket cancels any generation still streaming to it.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.mu.Lock()
	turns := append([]history.Turn(nil), s.session.Turns...)
	s.mu.Unlock()
	_ = sc.WriteJSON(serverFrame{Type: "history", Turns: turns})

	conn.SetReadLimit(512 * 1024)
	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Logf("panel: socket closed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "chat":
			if strings.TrimSpace(frame.Message) == "" {
				continue
			}
			s.handleChat(ctx, sc, frame.Message)
		case "clear":
			s.mu.Lock()
			err := s.session.Clear()
			s.mu.Unlock()
			if err != nil {
				_ = sc.WriteJSON(serverFrame{Type: "error", Content: err.Error()})
				continue
			}
			_ = sc.WriteJSON(serverFrame{Type: "history"})
		}
	}
}

// handleChat streams one exchange to the socket and persists both turns.
func (s *Server) handleChat(ctx context.Context, sc *safeConn, message string) {
	prompt, err := prompts.Render(prompts.TemplateChat, s.cfg.PromptTemplates, prompts.PromptData{
		Request: message,
		Context: s.contextSummary,
	})
	if err != nil {
		_ = sc.WriteJSON(serverFrame{Type: "error", Content: err.Error()})
		return
	}

	s.mu.Lock()
	s.session.Append("user", message)
	messages := s.session.Messages()
	s.mu.Unlock()
	messages[len(messages)-1].Content = prompt

	full, err := s.client.ChatStream(ctx, llm.Request{
		System:   prompts.SystemMessage,
		Messages: messages,
	}, func(chunk string) error {
		return sc.WriteJSON(serverFrame{Type: "chunk", Content: chunk})
	})
	if err != nil {
		s.logger.LogError(err)
		_ = sc.WriteJSON(serverFrame{Type: "error", Content: err.Error()})
		return
	}

	s.mu.Lock()
	s.session.Append("assistant", full)
	saveErr := s.session.Save()
	s.mu.Unlock()
	if saveErr != nil {
		s.logger.LogError(saveErr)
	}
	_ = sc.WriteJSON(serverFrame{Type: "done"})
}

// FindAvailablePort probes ports starting at base and returns the first
// one that binds.
func FindAvailablePort(base int) int {
	for port := base; port < base+100; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			l.Close()
			return port
		}
	}
	return base + 100
}
