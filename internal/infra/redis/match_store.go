package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-buzzer-service/internal/domain"
)

// casStatusScript performs the guarded status transition server-side, so
// two finishers racing to complete a match see exactly one winner.
var casStatusScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == ARGV[1] then
  redis.call('HSET', KEYS[1], 'status', ARGV[2])
  return 1
end
return 0
`)

// MatchStore keeps each match as a Redis hash: the full record under the
// 'doc' field and the mutable status under its own 'status' field, which is
// the compare-and-set target.
type MatchStore struct {
	client *redis.Client
}

func NewMatchStore(client *redis.Client) *MatchStore {
	return &MatchStore{client: client}
}

// Create writes the match document and its initial status.
func (s *MatchStore) Create(ctx context.Context, rec domain.MatchRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(rec.ID), "doc", doc, "status", string(rec.Status)).Err(); err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *MatchStore) Read(ctx context.Context, matchID string) (domain.MatchRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(matchID)).Result()
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("read match: %w", err)
	}
	doc, ok := fields["doc"]
	if !ok {
		return domain.MatchRecord{}, domain.ErrMatchNotFound
	}
	var rec domain.MatchRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("unmarshal match: %w", err)
	}
	// the status field is the live source of truth, not the doc snapshot
	if status, ok := fields["status"]; ok {
		rec.Status = domain.MatchStatus(status)
	}
	return rec, nil
}

func (s *MatchStore) CASStatus(ctx context.Context, matchID string, expected, next domain.MatchStatus) (bool, error) {
	n, err := casStatusScript.Run(ctx, s.client, []string{s.key(matchID)}, string(expected), string(next)).Int()
	if err != nil {
		return false, fmt.Errorf("cas status: %w", err)
	}
	return n == 1, nil
}

func (s *MatchStore) key(matchID string) string {
	return "match:" + matchID
}
