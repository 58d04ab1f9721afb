package memory

import (
	"context"
	"sync"

	"trivia-buzzer-service/internal/domain"
)

// MatchStore is an in-memory implementation of engine.MatchStore. The
// status CAS runs under the store lock, so concurrent finishers observe a
// single winner exactly as with the Redis-backed store.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]domain.MatchRecord
}

func NewMatchStore() *MatchStore {
	return &MatchStore{matches: make(map[string]domain.MatchRecord)}
}

// Create registers a match record. Used by seeding, tests and the demo CLI;
// the engine itself only reads and CASes.
func (s *MatchStore) Create(_ context.Context, rec domain.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[rec.ID] = rec
	return nil
}

func (s *MatchStore) Read(_ context.Context, matchID string) (domain.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return domain.MatchRecord{}, domain.ErrMatchNotFound
	}
	return rec, nil
}

func (s *MatchStore) CASStatus(_ context.Context, matchID string, expected, next domain.MatchStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return false, domain.ErrMatchNotFound
	}
	if rec.Status != expected {
		return false, nil
	}
	rec.Status = next
	s.matches[matchID] = rec
	return true, nil
}
