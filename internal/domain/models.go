package domain

import "time"

// MatchStatus is the lifecycle of a shared match. Transitions are
// monotonic: waiting → active → completed, never backward.
type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

// Outcome is the terminal result of a single question. Timeouts and
// hesitation expiries are first-class outcomes, not errors; they differ
// only in whether a buzz happened before the clock ran out.
type Outcome string

const (
	OutcomeCorrect           Outcome = "correct"
	OutcomeIncorrect         Outcome = "incorrect"
	OutcomeTimeout           Outcome = "timeout"
	OutcomeHesitationExpired Outcome = "hesitation_expired"
)

// Question models a buzzer question. Immutable once fetched from the bank.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"` // 1 to 3, enforced at the bank boundary
	Subject     string   `json:"subject"`
	Difficulty  int      `json:"difficulty"`
}

// Settings carries per-team timing configuration for a session.
type Settings struct {
	QuestionSeconds   int `json:"questionSeconds" yaml:"questionSeconds"`
	HesitationSeconds int `json:"hesitationSeconds" yaml:"hesitationSeconds"`
	WordsPerMinute    int `json:"wordsPerMinute" yaml:"wordsPerMinute"`
}

// DefaultSettings is the last-resort fallback when neither a team record
// nor a team-agnostic default record exists.
func DefaultSettings() Settings {
	return Settings{
		QuestionSeconds:   10,
		HesitationSeconds: 5,
		WordsPerMinute:    150,
	}
}

// SubjectStats tracks per-subject accuracy counters for one session.
type SubjectStats struct {
	Correct   int `json:"correct"`
	Attempted int `json:"attempted"`
}

// Session is one participant's run through a question list, whether solo
// practice or as part of a match. Mutated only by that participant's runner.
type Session struct {
	MatchID       string                  `json:"matchId,omitempty"` // empty in practice mode
	ParticipantID string                  `json:"participantId"`
	QuestionIDs   []string                `json:"questionIds"`
	Index         int                     `json:"index"`
	Score         int                     `json:"score"`
	BySubject     map[string]SubjectStats `json:"bySubject"`
	BuzzLatencies []time.Duration         `json:"buzzLatencies"`
}

// MatchRecord is the shared per-match document read and written by every
// participant and by the completion coordinator.
type MatchRecord struct {
	ID          string      `json:"id"`
	OrganizerID string      `json:"organizerId"`
	Roster      []string    `json:"roster"`
	Status      MatchStatus `json:"status"`
	QuestionIDs []string    `json:"questionIds"`
}

// ResultEntry is the append-only per-participant outcome record. Its
// presence is the completion signal the coordinator keys on, so there is
// at most one per (match, participant).
type ResultEntry struct {
	ParticipantID  string                  `json:"participantId"`
	Score          int                     `json:"score"`
	Total          int                     `json:"total"`
	BySubject      map[string]SubjectStats `json:"bySubject"`
	AvgBuzzLatency time.Duration           `json:"avgBuzzLatency"`
	CompletedAt    time.Time               `json:"completedAt"`
}

// Notification is a fire-and-forget message to a user.
type Notification struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Message string `json:"message"`
}
