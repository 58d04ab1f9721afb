package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trivia-buzzer-service/internal/domain"
)

func testQuestion(id, text string) domain.Question {
	return domain.Question{
		ID:          id,
		Text:        text,
		Answer:      "right",
		Distractors: []string{"wrong"},
		Subject:     "misc",
		Difficulty:  1,
	}
}

func TestBuzzGateExactlyOneWinner(t *testing.T) {
	st := newQuestionState(testQuestion("q1", "one two three"), time.Now())
	st.live.Store(true)

	const attempts = 32
	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := st.attemptBuzz(fmt.Sprintf("p%d", i), time.Now())
			if res.Won {
				won.Add(1)
			} else if res.Reason != RejectAlreadyLocked {
				t.Errorf("unexpected reject reason %q", res.Reason)
			}
		}(i)
	}
	wg.Wait()

	if won.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", won.Load())
	}
	claim := <-st.claimCh
	if !st.lockedBy(claim.participantID) {
		t.Fatalf("winner %s does not hold the lock", claim.participantID)
	}
	select {
	case extra := <-st.claimCh:
		t.Fatalf("second claim published for %s", extra.participantID)
	default:
	}
}

func TestBuzzRejectedWhenNotLive(t *testing.T) {
	st := newQuestionState(testQuestion("q1", "one two"), time.Now())

	res := st.attemptBuzz("p1", time.Now())
	if res.Won || res.Reason != RejectNotLive {
		t.Fatalf("expected not-live rejection, got %+v", res)
	}

	st.live.Store(true)
	if res := st.attemptBuzz("p1", time.Now()); !res.Won {
		t.Fatalf("expected win once live, got %+v", res)
	}
	if res := st.attemptBuzz("p2", time.Now()); res.Won || res.Reason != RejectAlreadyLocked {
		t.Fatalf("expected already-locked rejection, got %+v", res)
	}
}
