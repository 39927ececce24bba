package chat

import (
	"context"
	"sync"
)

// MemoryStore is an in-process SessionStore used in tests and the test
// profile. Session order follows first Append.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	sessions map[string][]ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]ChatMessage)}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, messages ...ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.order = append(s.order, sessionID)
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], messages...)
	return nil
}

func (s *MemoryStore) Messages(_ context.Context, sessionID string) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]ChatMessage, len(messages))
	copy(out, messages)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]SessionInfo, 0, len(s.order))
	for _, id := range s.order {
		messages := s.sessions[id]
		infos = append(infos, SessionInfo{
			ID:           id,
			MessageCount: len(messages),
			Preview:      previewOf(messages),
		})
	}
	return infos, nil
}

const previewLimit = 80

func previewOf(messages []ChatMessage) string {
	for _, message := range messages {
		if message.Role == RoleUser {
			if len(message.Content) > previewLimit {
				return message.Content[:previewLimit]
			}
			return message.Content
		}
	}
	return ""
}
