package assistant

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	agentIDFile        = "agent_id"
	conversationIDFile = "conversation_id"
)

// Session carries the server-side identifiers of the multi-turn mode. It is
// backed by two small files in a state directory and only touches them in
// LoadSession and Save.
type Session struct {
	AgentID        string
	ConversationID string

	dir string
}

// LoadSession reads the identifiers stored in dir. Missing files yield empty
// identifiers.
func LoadSession(dir string) (*Session, error) {
	s := &Session{dir: dir}
	var err error
	if s.AgentID, err = readID(filepath.Join(dir, agentIDFile)); err != nil {
		return nil, err
	}
	if s.ConversationID, err = readID(filepath.Join(dir, conversationIDFile)); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir is the backing state directory.
func (s *Session) Dir() string {
	return s.dir
}

// Save writes both identifiers. Empty identifiers remove their file.
func (s *Session) Save() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := writeID(filepath.Join(s.dir, agentIDFile), s.AgentID); err != nil {
		return err
	}
	return writeID(filepath.Join(s.dir, conversationIDFile), s.ConversationID)
}

// ResetConversation forgets the conversation so the next message starts a
// new one. The agent is kept.
func (s *Session) ResetConversation() {
	s.ConversationID = ""
}

func readID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeID(path, id string) error {
	if id == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
