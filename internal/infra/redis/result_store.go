package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-buzzer-service/internal/domain"
)

// ResultStore keeps per-match result entries in a hash keyed by
// participant id. HSETNX makes the append naturally idempotent: the first
// write wins, later ones report domain.ErrResultExists.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) Append(ctx context.Context, matchID, participantID string, entry domain.ResultEntry) error {
	if participantID == "" {
		return domain.ErrNoParticipant
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	set, err := s.client.HSetNX(ctx, s.key(matchID), participantID, data).Result()
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	if !set {
		return domain.ErrResultExists
	}
	return nil
}

func (s *ResultStore) Participants(ctx context.Context, matchID string) ([]string, error) {
	ids, err := s.client.HKeys(ctx, s.key(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return ids, nil
}

func (s *ResultStore) Entries(ctx context.Context, matchID string) ([]domain.ResultEntry, error) {
	raw, err := s.client.HVals(ctx, s.key(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]domain.ResultEntry, 0, len(raw))
	for _, v := range raw {
		var entry domain.ResultEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *ResultStore) key(matchID string) string {
	return "match:" + matchID + ":results"
}
