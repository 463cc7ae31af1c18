// Package history persists chat conversations under the project's .workshop
// directory so a session survives restarts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/workshopai/workshop/pkg/config"
	"github.com/workshopai/workshop/pkg/prompts"
)

const (
	historyFileName = "chat_history.json"

	// maxTurns bounds how much history is replayed into each request.
	// System messages are always kept.
	maxTurns = 20
)

// Turn is one stored message.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a persisted conversation.
type Session struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`

	path string
}

func historyPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ConfigDirName, historyFileName)
}

// Load reads the project's chat history, returning a fresh session when
// none exists or the stored file is unreadable.
func Load(projectRoot string) *Session {
	s := &Session{
		ID:   uuid.NewString(),
		path: historyPath(projectRoot),
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s
	}
	var stored Session
	if err := json.Unmarshal(data, &stored); err != nil {
		return s
	}
	if stored.ID != "" {
		s.ID = stored.ID
	}
	s.Turns = stored.Turns
	return s
}

// Append records a message and trims the session to its turn budget.
func (s *Session) Append(role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: time.Now()})
	s.trim()
}

// trim drops the oldest non-system turns once the budget is exceeded.
func (s *Session) trim() {
	var system, rest []Turn
	for _, t := range s.Turns {
		if t.Role == "system" {
			system = append(system, t)
		} else {
			rest = append(rest, t)
		}
	}
	if len(rest) > maxTurns {
		rest = rest[len(rest)-maxTurns:]
	}
	s.Turns = append(system, rest...)
}

// Messages converts the stored turns into request messages.
func (s *Session) Messages() []prompts.Message {
	out := make([]prompts.Message, 0, len(s.Turns))
	for _, t := range s.Turns {
		out = append(out, prompts.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

// Save writes the session to disk.
func (s *Session) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chat history: %w", err)
	}
	return nil
}

// Clear empties the session and removes the stored file.
func (s *Session) Clear() error {
	s.Turns = nil
	s.ID = uuid.NewString()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove chat history: %w", err)
	}
	return nil
}
