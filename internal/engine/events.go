package engine

import (
	"time"

	"trivia-buzzer-service/internal/domain"
)

// EventType identifies a session event emitted by a Runner.
type EventType string

const (
	// EventReveal carries an updated words-revealed count.
	EventReveal EventType = "reveal"
	// EventQuestion announces a new question entering the reveal phase.
	EventQuestion EventType = "question"
	// EventLocked announces a won buzz; the hesitation window is running.
	EventLocked EventType = "locked"
	// EventResolved carries a question's terminal outcome.
	EventResolved EventType = "resolved"
	// EventSessionComplete carries the finalized result entry.
	EventSessionComplete EventType = "session_complete"
)

// Event is one step of a session's observable timeline. The runner fans
// these out to subscribers (websocket transport, tests) so the state
// machine can be observed headlessly.
type Event struct {
	Type          EventType           `json:"type"`
	QuestionID    string              `json:"questionId,omitempty"`
	QuestionIndex int                 `json:"questionIndex"`
	Revealed      int                 `json:"revealed,omitempty"`
	TotalWords    int                 `json:"totalWords,omitempty"`
	BuzzedBy      string              `json:"buzzedBy,omitempty"`
	BuzzLatency   time.Duration       `json:"buzzLatency,omitempty"`
	Outcome       domain.Outcome      `json:"outcome,omitempty"`
	Score         int                 `json:"score"`
	Entry         *domain.ResultEntry `json:"entry,omitempty"`
}
