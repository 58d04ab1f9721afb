package engine

import (
	"context"

	"trivia-buzzer-service/internal/domain"
)

// QuestionBank loads question content (from cache/backing store). The bank
// validates records at its boundary: a question with no distractors never
// reaches the runner.
type QuestionBank interface {
	// FetchByIDs returns questions in the order of ids. A missing id yields
	// domain.ErrQuestionNotFound, which is fatal for the requesting session.
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
}

// SettingsProvider resolves per-team timing configuration, falling back to
// a team-agnostic default record and then to hardcoded defaults.
type SettingsProvider interface {
	Get(ctx context.Context, teamID string) (domain.Settings, error)
}

// ResultStore holds append-only per-participant outcome records, keyed
// uniquely per (match, participant).
type ResultStore interface {
	// Append writes an entry exactly once. A duplicate write returns
	// domain.ErrResultExists, which callers treat as success.
	Append(ctx context.Context, matchID, participantID string, entry domain.ResultEntry) error
	// Participants returns the ids that have submitted an entry for the match.
	Participants(ctx context.Context, matchID string) ([]string, error)
	// Entries returns all entries recorded for the match.
	Entries(ctx context.Context, matchID string) ([]domain.ResultEntry, error)
}

// MatchStore reads the shared match record and performs the one contested
// write in the system: the conditional status transition.
type MatchStore interface {
	Read(ctx context.Context, matchID string) (domain.MatchRecord, error)
	// CASStatus atomically moves matchID from expected to next, reporting
	// whether this caller performed the transition.
	CASStatus(ctx context.Context, matchID string, expected, next domain.MatchStatus) (bool, error)
}

// NotificationSink delivers fire-and-forget user notifications. Failures
// are logged by callers, never retried synchronously.
type NotificationSink interface {
	Send(ctx context.Context, userID string, n domain.Notification) error
}
