package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"trivia-buzzer-service/internal/domain"
)

func testSettings() domain.Settings {
	return domain.Settings{QuestionSeconds: 10, HesitationSeconds: 5, WordsPerMinute: 150}
}

func practiceSession(participantID string, questionIDs ...string) *domain.Session {
	return &domain.Session{
		ParticipantID: participantID,
		QuestionIDs:   questionIDs,
		BySubject:     make(map[string]domain.SubjectStats),
	}
}

func waitEvent(t *testing.T, events <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				t.Fatalf("events closed while waiting for %s", typ)
			}
			if e.Type == typ {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-events:
		if !ok {
			t.Fatalf("events closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for next event")
		return Event{}
	}
}

// Scenario: wpm=150, questionSeconds=10, a 10-word question. Word N shows
// at N*0.4s; no buzz by 10s resolves as timeout.
func TestQuestionTimesOutWithoutBuzz(t *testing.T) {
	fc := clockwork.NewFakeClock()
	q := testQuestion("q1", "one two three four five six seven eight nine ten")
	r := newRunner(practiceSession("p1", "q1"), []domain.Question{q}, testSettings(), fc, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	waitEvent(t, r.Events(), EventQuestion)
	fc.BlockUntil(2) // reveal ticker + question timer
	for want := 1; want <= 10; want++ {
		fc.Advance(400 * time.Millisecond)
		e := waitEvent(t, r.Events(), EventReveal)
		if e.Revealed != want {
			t.Fatalf("expected %d words revealed, got %d", want, e.Revealed)
		}
	}

	// all words shown at 4s; the question clock runs to 10s
	fc.BlockUntil(1)
	fc.Advance(6 * time.Second)

	resolved := waitEvent(t, r.Events(), EventResolved)
	if resolved.Outcome != domain.OutcomeTimeout {
		t.Fatalf("expected timeout outcome, got %s", resolved.Outcome)
	}

	complete := waitEvent(t, r.Events(), EventSessionComplete)
	if complete.Entry.Score != 0 || complete.Entry.Total != 1 {
		t.Fatalf("expected score 0/1, got %d/%d", complete.Entry.Score, complete.Entry.Total)
	}
	if stats := complete.Entry.BySubject["misc"]; stats.Attempted != 1 || stats.Correct != 0 {
		t.Fatalf("expected 1 attempted 0 correct, got %+v", stats)
	}
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

// Scenario: buzz at word 3 of 10 stops the reveal immediately; a correct
// answer inside the hesitation window scores, latency = start→buzz.
func TestBuzzLocksRevealAndGradesAnswer(t *testing.T) {
	fc := clockwork.NewFakeClock()
	q := testQuestion("q1", "one two three four five six seven eight nine ten")
	r := newRunner(practiceSession("p1", "q1"), []domain.Question{q}, testSettings(), fc, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	waitEvent(t, r.Events(), EventQuestion)
	fc.BlockUntil(2)
	for want := 1; want <= 3; want++ {
		fc.Advance(400 * time.Millisecond)
		waitEvent(t, r.Events(), EventReveal)
	}

	if res := r.Buzz("p1"); !res.Won {
		t.Fatalf("expected buzz to win, got %+v", res)
	}
	locked := waitEvent(t, r.Events(), EventLocked)
	if locked.BuzzedBy != "p1" {
		t.Fatalf("expected p1 to hold the lock, got %s", locked.BuzzedBy)
	}
	if locked.BuzzLatency != 1200*time.Millisecond {
		t.Fatalf("expected 1.2s buzz latency, got %s", locked.BuzzLatency)
	}

	if res := r.Buzz("p2"); res.Won || res.Reason != RejectAlreadyLocked {
		t.Fatalf("expected already-locked rejection, got %+v", res)
	}
	if err := r.SubmitAnswer("p2", "right"); err == nil {
		t.Fatalf("expected non-winner answer to be rejected")
	}

	// the reveal must not advance past word 3 while locked
	fc.Advance(400 * time.Millisecond)
	if err := r.SubmitAnswer("p1", "right"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	resolved := nextEvent(t, r.Events())
	if resolved.Type != EventResolved {
		t.Fatalf("expected resolved next, got %s", resolved.Type)
	}
	if resolved.Outcome != domain.OutcomeCorrect {
		t.Fatalf("expected correct outcome, got %s", resolved.Outcome)
	}

	complete := waitEvent(t, r.Events(), EventSessionComplete)
	if complete.Entry.Score != 1 {
		t.Fatalf("expected score 1, got %d", complete.Entry.Score)
	}
	if complete.Entry.AvgBuzzLatency != 1200*time.Millisecond {
		t.Fatalf("expected avg latency 1.2s, got %s", complete.Entry.AvgBuzzLatency)
	}
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

// Scenario: hesitationSeconds=5, buzzed, no answer → hesitation_expired at
// t+5s; subject attempted incremented, correct not, no points.
func TestHesitationExpiryCountsAsMiss(t *testing.T) {
	fc := clockwork.NewFakeClock()
	q := testQuestion("q1", "one two three four")
	r := newRunner(practiceSession("p1", "q1"), []domain.Question{q}, testSettings(), fc, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	waitEvent(t, r.Events(), EventQuestion)
	fc.BlockUntil(2)
	fc.Advance(400 * time.Millisecond)
	waitEvent(t, r.Events(), EventReveal)

	if res := r.Buzz("p1"); !res.Won {
		t.Fatalf("expected buzz to win, got %+v", res)
	}
	waitEvent(t, r.Events(), EventLocked)

	fc.BlockUntil(1) // only the hesitation timer is live now
	fc.Advance(5 * time.Second)

	resolved := waitEvent(t, r.Events(), EventResolved)
	if resolved.Outcome != domain.OutcomeHesitationExpired {
		t.Fatalf("expected hesitation_expired, got %s", resolved.Outcome)
	}

	// submitting after expiry is rejected; the question already resolved
	if err := r.SubmitAnswer("p1", "right"); err == nil {
		t.Fatalf("expected late answer to be rejected")
	}

	complete := waitEvent(t, r.Events(), EventSessionComplete)
	if complete.Entry.Score != 0 {
		t.Fatalf("expected no points, got %d", complete.Entry.Score)
	}
	if stats := complete.Entry.BySubject["misc"]; stats.Attempted != 1 || stats.Correct != 0 {
		t.Fatalf("expected miss recorded, got %+v", stats)
	}
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

// Round-trip property: final score equals the sum of per-subject corrects
// and total attempted equals the question count.
func TestSessionTotalsAcrossOutcomes(t *testing.T) {
	fc := clockwork.NewFakeClock()
	questions := []domain.Question{
		testQuestion("q1", "alpha beta"),
		testQuestion("q2", "gamma delta"),
		testQuestion("q3", "epsilon zeta"),
	}
	r := newRunner(practiceSession("p1", "q1", "q2", "q3"), questions, testSettings(), fc, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	// q1: buzz and answer correctly
	waitEvent(t, r.Events(), EventQuestion)
	if res := r.Buzz("p1"); !res.Won {
		t.Fatalf("q1 buzz rejected: %+v", res)
	}
	waitEvent(t, r.Events(), EventLocked)
	if err := r.SubmitAnswer("p1", "right"); err != nil {
		t.Fatalf("q1 answer: %v", err)
	}
	waitEvent(t, r.Events(), EventResolved)

	// q2: buzz and answer incorrectly
	waitEvent(t, r.Events(), EventQuestion)
	if res := r.Buzz("p1"); !res.Won {
		t.Fatalf("q2 buzz rejected: %+v", res)
	}
	waitEvent(t, r.Events(), EventLocked)
	if err := r.SubmitAnswer("p1", "way off"); err != nil {
		t.Fatalf("q2 answer: %v", err)
	}
	if e := waitEvent(t, r.Events(), EventResolved); e.Outcome != domain.OutcomeIncorrect {
		t.Fatalf("expected incorrect, got %s", e.Outcome)
	}

	// q3: let the question clock run out
	waitEvent(t, r.Events(), EventQuestion)
	fc.BlockUntil(2)
	fc.Advance(10 * time.Second)
	if e := waitEvent(t, r.Events(), EventResolved); e.Outcome != domain.OutcomeTimeout {
		t.Fatalf("expected timeout, got %s", e.Outcome)
	}

	complete := waitEvent(t, r.Events(), EventSessionComplete)
	entry := complete.Entry
	if entry.Total != 3 {
		t.Fatalf("expected total 3, got %d", entry.Total)
	}
	var attempted, correct int
	for _, stats := range entry.BySubject {
		attempted += stats.Attempted
		correct += stats.Correct
	}
	if attempted != 3 {
		t.Fatalf("expected 3 attempted, got %d", attempted)
	}
	if correct != entry.Score {
		t.Fatalf("score %d does not match correct count %d", entry.Score, correct)
	}
	if err := <-done; err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestCancelAbortsSession(t *testing.T) {
	fc := clockwork.NewFakeClock()
	q := testQuestion("q1", "one two three")
	r := newRunner(practiceSession("p1", "q1"), []domain.Question{q}, testSettings(), fc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitEvent(t, r.Events(), EventQuestion)
	cancel()

	err := <-done
	if err == nil {
		t.Fatalf("expected abort error")
	}
	if !errors.Is(err, domain.ErrSessionAborted) {
		t.Fatalf("expected ErrSessionAborted, got %v", err)
	}
}
