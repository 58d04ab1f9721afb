package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-buzzer-service/internal/domain"
)

func TestResultStoreAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(newTestClient(t))

	entry := domain.ResultEntry{
		ParticipantID:  "p1",
		Score:          3,
		Total:          5,
		BySubject:      map[string]domain.SubjectStats{"history": {Correct: 3, Attempted: 5}},
		AvgBuzzLatency: 1200 * time.Millisecond,
	}
	if err := store.Append(ctx, "m1", "p1", entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "m1", "p1", entry); !errors.Is(err, domain.ErrResultExists) {
		t.Fatalf("expected ErrResultExists, got %v", err)
	}
	if err := store.Append(ctx, "m1", "", entry); !errors.Is(err, domain.ErrNoParticipant) {
		t.Fatalf("expected ErrNoParticipant, got %v", err)
	}

	if err := store.Append(ctx, "m1", "p2", domain.ResultEntry{ParticipantID: "p2", Total: 5}); err != nil {
		t.Fatalf("append p2: %v", err)
	}

	ids, err := store.Participants(ctx, "m1")
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 participants, got %v", ids)
	}

	entries, err := store.Entries(ctx, "m1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	byID := make(map[string]domain.ResultEntry)
	for _, e := range entries {
		byID[e.ParticipantID] = e
	}
	got := byID["p1"]
	if got.Score != 3 || got.AvgBuzzLatency != 1200*time.Millisecond {
		t.Fatalf("p1 entry did not round-trip: %+v", got)
	}
	if got.BySubject["history"].Attempted != 5 {
		t.Fatalf("subject stats did not round-trip: %+v", got.BySubject)
	}
}
