package memory

import (
	"context"
	"sync"

	"trivia-buzzer-service/internal/domain"
)

// ResultStore is an in-memory implementation of engine.ResultStore.
// Entries are keyed per (match, participant); a second append for the same
// key reports domain.ErrResultExists, which callers treat as success.
type ResultStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]domain.ResultEntry
}

func NewResultStore() *ResultStore {
	return &ResultStore{entries: make(map[string]map[string]domain.ResultEntry)}
}

func (s *ResultStore) Append(_ context.Context, matchID, participantID string, entry domain.ResultEntry) error {
	if participantID == "" {
		return domain.ErrNoParticipant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byParticipant, ok := s.entries[matchID]
	if !ok {
		byParticipant = make(map[string]domain.ResultEntry)
		s.entries[matchID] = byParticipant
	}
	if _, exists := byParticipant[participantID]; exists {
		return domain.ErrResultExists
	}
	byParticipant[participantID] = entry
	return nil
}

func (s *ResultStore) Participants(_ context.Context, matchID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries[matchID]))
	for id := range s.entries[matchID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *ResultStore) Entries(_ context.Context, matchID string) ([]domain.ResultEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.ResultEntry, 0, len(s.entries[matchID]))
	for _, entry := range s.entries[matchID] {
		entries = append(entries, entry)
	}
	return entries, nil
}
