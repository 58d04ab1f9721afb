package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-buzzer-service/internal/domain"
)

func TestMatchStoreCAS(t *testing.T) {
	ctx := context.Background()
	s := NewMatchStore()
	if err := s.Create(ctx, domain.MatchRecord{ID: "m1", Status: domain.MatchWaiting}); err != nil {
		t.Fatalf("create: %v", err)
	}

	won, err := s.CASStatus(ctx, "m1", domain.MatchWaiting, domain.MatchActive)
	if err != nil || !won {
		t.Fatalf("first CAS: won=%v err=%v", won, err)
	}
	won, err = s.CASStatus(ctx, "m1", domain.MatchWaiting, domain.MatchActive)
	if err != nil || won {
		t.Fatalf("repeat CAS should lose: won=%v err=%v", won, err)
	}

	rec, err := s.Read(ctx, "m1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec.Status != domain.MatchActive {
		t.Fatalf("expected active, got %s", rec.Status)
	}

	if _, err := s.Read(ctx, "missing"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
	if _, err := s.CASStatus(ctx, "missing", domain.MatchWaiting, domain.MatchActive); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound from CAS, got %v", err)
	}
}

func TestResultStoreAppendOnce(t *testing.T) {
	ctx := context.Background()
	s := NewResultStore()
	entry := domain.ResultEntry{ParticipantID: "p1", Score: 1, Total: 2}

	if err := s.Append(ctx, "m1", "p1", entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "m1", "p1", entry); !errors.Is(err, domain.ErrResultExists) {
		t.Fatalf("expected ErrResultExists, got %v", err)
	}
	if err := s.Append(ctx, "m1", "", entry); !errors.Is(err, domain.ErrNoParticipant) {
		t.Fatalf("expected ErrNoParticipant, got %v", err)
	}

	if err := s.Append(ctx, "m1", "p2", domain.ResultEntry{ParticipantID: "p2"}); err != nil {
		t.Fatalf("append p2: %v", err)
	}
	ids, err := s.Participants(ctx, "m1")
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 participants, got %v", ids)
	}
	entries, err := s.Entries(ctx, "m1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestSettingsProviderFallbackChain(t *testing.T) {
	ctx := context.Background()
	p := NewSettingsProvider(map[string]domain.Settings{
		"team-a":  {QuestionSeconds: 20, HesitationSeconds: 8, WordsPerMinute: 120},
		"default": {QuestionSeconds: 15},
	})

	s, err := p.Get(ctx, "team-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.QuestionSeconds != 20 || s.WordsPerMinute != 120 {
		t.Fatalf("unexpected team settings: %+v", s)
	}

	// unknown team falls back to the default record, partial fields filled
	s, err = p.Get(ctx, "team-z")
	if err != nil {
		t.Fatalf("get fallback: %v", err)
	}
	def := domain.DefaultSettings()
	if s.QuestionSeconds != 15 || s.HesitationSeconds != def.HesitationSeconds || s.WordsPerMinute != def.WordsPerMinute {
		t.Fatalf("unexpected fallback settings: %+v", s)
	}

	// no default record at all yields hardcoded defaults
	empty := NewSettingsProvider(nil)
	s, err = empty.Get(ctx, "anyone")
	if err != nil {
		t.Fatalf("get defaults: %v", err)
	}
	if s != def {
		t.Fatalf("expected hardcoded defaults, got %+v", s)
	}
}
