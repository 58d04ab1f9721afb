package engine

import (
	"sync/atomic"
	"time"

	"trivia-buzzer-service/internal/domain"
)

// RejectReason explains a refused buzz attempt.
type RejectReason string

const (
	// RejectAlreadyLocked means another attempt won the race for this question.
	RejectAlreadyLocked RejectReason = "already-locked"
	// RejectNotLive means no question is currently accepting buzzes.
	RejectNotLive RejectReason = "question-not-live"
)

// BuzzResult is the outcome of a single buzz attempt. Exactly one attempt
// per question instance gets Won=true.
type BuzzResult struct {
	Won    bool
	Reason RejectReason
}

type buzzClaim struct {
	participantID string
	at            time.Time
}

// questionState is the ephemeral per-question cell. One instance lives from
// the moment the runner enters Revealing until the question resolves; the
// lock field is the compare-and-swap target that makes the single-winner
// guarantee hold even for genuinely concurrent buzz attempts.
type questionState struct {
	question  domain.Question
	startedAt time.Time

	totalWords int
	revealed   atomic.Int32

	live     atomic.Bool
	lock     atomic.Bool
	resolved atomic.Bool

	// written once by the CAS winner, published via claim and claimCh
	claim   atomic.Pointer[buzzClaim]
	claimCh chan buzzClaim
}

func newQuestionState(q domain.Question, startedAt time.Time) *questionState {
	return &questionState{
		question:   q,
		startedAt:  startedAt,
		totalWords: len(splitWords(q.Text)),
		claimCh:    make(chan buzzClaim, 1),
	}
}

// attemptBuzz resolves the first-to-buzz race. The winner's claim is
// published on claimCh for the runner to pick up; the channel has capacity
// one and only the CAS winner sends, so the send never blocks.
func (s *questionState) attemptBuzz(participantID string, now time.Time) BuzzResult {
	if s.lock.Load() {
		return BuzzResult{Reason: RejectAlreadyLocked}
	}
	if !s.live.Load() {
		return BuzzResult{Reason: RejectNotLive}
	}
	if !s.lock.CompareAndSwap(false, true) {
		return BuzzResult{Reason: RejectAlreadyLocked}
	}
	c := buzzClaim{participantID: participantID, at: now}
	s.claim.Store(&c)
	s.claimCh <- c
	return BuzzResult{Won: true}
}

func (s *questionState) lockedBy(participantID string) bool {
	c := s.claim.Load()
	return c != nil && c.participantID == participantID
}
