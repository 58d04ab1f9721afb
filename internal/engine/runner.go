package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/domain"
)

// Runner drives one participant's session through its question list:
// Revealing → Locked → Resolved per question, then SessionComplete. All
// state transitions happen on the Run goroutine; Buzz and SubmitAnswer are
// safe to call from any goroutine and communicate through the current
// question's CAS cell and channels.
type Runner struct {
	session   *domain.Session
	questions []domain.Question
	settings  domain.Settings
	clock     clockwork.Clock
	coord     *Coordinator

	answerCh chan string
	events   chan Event

	mu    sync.RWMutex
	state *questionState
}

func newRunner(session *domain.Session, questions []domain.Question, settings domain.Settings, clock clockwork.Clock, coord *Coordinator) *Runner {
	return &Runner{
		session:   session,
		questions: questions,
		settings:  settings,
		clock:     clock,
		coord:     coord,
		answerCh:  make(chan string, 1),
		events:    make(chan Event, 64),
	}
}

// Events exposes the session's observable timeline. The channel is closed
// when Run returns.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Buzz attempts to claim the current question for participantID. First
// valid attempt wins and starts the hesitation window; everyone else is
// rejected with a reason.
func (r *Runner) Buzz(participantID string) BuzzResult {
	st := r.currentState()
	if st == nil {
		return BuzzResult{Reason: RejectNotLive}
	}
	return st.attemptBuzz(participantID, r.clock.Now())
}

// SubmitAnswer delivers the buzz winner's answer. Submissions from anyone
// but the winner, or after the question resolved, are rejected: the
// question has already moved on.
func (r *Runner) SubmitAnswer(participantID, answer string) error {
	st := r.currentState()
	if st == nil || !st.lockedBy(participantID) || st.resolved.Load() {
		return domain.ErrAnswerClosed
	}
	select {
	case r.answerCh <- answer:
		return nil
	default:
		return domain.ErrAnswerClosed
	}
}

// Run executes the session to completion. Any fatal failure aborts the
// whole session; no partial score is persisted, so totals stay honest
// against the declared question count.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.events)

	for i := range r.questions {
		r.session.Index = i
		if err := r.runQuestion(ctx, i, r.questions[i]); err != nil {
			log.Error().Err(err).
				Str("participant_id", r.session.ParticipantID).
				Int("question_index", i).
				Msg("session aborted")
			return fmt.Errorf("%w: question %d: %v", domain.ErrSessionAborted, i, err)
		}
	}

	entry := r.buildEntry()
	r.emit(Event{
		Type:          EventSessionComplete,
		QuestionIndex: r.session.Index,
		Score:         r.session.Score,
		Entry:         &entry,
	})
	log.Info().
		Str("participant_id", r.session.ParticipantID).
		Str("match_id", r.session.MatchID).
		Int("score", entry.Score).
		Int("total", entry.Total).
		Msg("session complete")

	if r.session.MatchID == "" {
		// practice run; nothing shared to finalize
		return nil
	}
	return r.coord.FinalizeParticipant(ctx, r.session.MatchID, r.session.ParticipantID, entry)
}

// runQuestion runs one question's lifecycle. Exactly one terminal outcome
// is reached: correct, incorrect, timeout, or hesitation_expired.
func (r *Runner) runQuestion(ctx context.Context, index int, q domain.Question) error {
	st := newQuestionState(q, r.clock.Now())
	r.setState(st)
	r.drainAnswers()
	st.live.Store(true)

	r.emit(Event{
		Type:          EventQuestion,
		QuestionID:    q.ID,
		QuestionIndex: index,
		TotalWords:    st.totalWords,
		Score:         r.session.Score,
	})

	reveal := StartReveal(r.clock, st.totalWords, r.settings.WordsPerMinute, func(n int) {
		st.revealed.Store(int32(n))
		r.emit(Event{
			Type:          EventReveal,
			QuestionID:    q.ID,
			QuestionIndex: index,
			Revealed:      n,
			TotalWords:    st.totalWords,
			Score:         r.session.Score,
		})
	})

	qTimer := r.clock.NewTimer(time.Duration(r.settings.QuestionSeconds) * time.Second)

	var (
		outcome domain.Outcome
		latency time.Duration
		buzzed  bool
		winner  string
	)

	select {
	case <-ctx.Done():
		st.live.Store(false)
		reveal.Stop()
		stopAndDrainTimer(qTimer)
		return ctx.Err()

	case <-qTimer.Chan():
		// full reveal+buzz window elapsed with no buzz
		st.live.Store(false)
		reveal.Stop()
		outcome = domain.OutcomeTimeout

	case claim := <-st.claimCh:
		// Locked: the outer question timer and the reveal stop here, so the
		// hesitation timer is never racing against them.
		stopAndDrainTimer(qTimer)
		reveal.Stop()
		buzzed = true
		winner = claim.participantID
		latency = claim.at.Sub(st.startedAt)

		r.emit(Event{
			Type:          EventLocked,
			QuestionID:    q.ID,
			QuestionIndex: index,
			Revealed:      int(st.revealed.Load()),
			TotalWords:    st.totalWords,
			BuzzedBy:      winner,
			BuzzLatency:   latency,
			Score:         r.session.Score,
		})

		hTimer := r.clock.NewTimer(time.Duration(r.settings.HesitationSeconds) * time.Second)
		select {
		case <-ctx.Done():
			stopAndDrainTimer(hTimer)
			return ctx.Err()
		case <-hTimer.Chan():
			outcome = domain.OutcomeHesitationExpired
		case answer := <-r.answerCh:
			stopAndDrainTimer(hTimer)
			if answerMatches(q, answer) {
				outcome = domain.OutcomeCorrect
			} else {
				outcome = domain.OutcomeIncorrect
			}
		}
	}

	st.live.Store(false)
	st.resolved.Store(true)
	r.applyOutcome(q, outcome, latency, buzzed)
	r.emit(Event{
		Type:          EventResolved,
		QuestionID:    q.ID,
		QuestionIndex: index,
		BuzzedBy:      winner,
		BuzzLatency:   latency,
		Outcome:       outcome,
		Score:         r.session.Score,
	})
	return nil
}

// applyOutcome updates the session's score and subject counters. Every
// terminal outcome, hesitation expiries included, counts as attempted, so
// total attempted always equals the question count.
func (r *Runner) applyOutcome(q domain.Question, outcome domain.Outcome, latency time.Duration, buzzed bool) {
	stats := r.session.BySubject[q.Subject]
	stats.Attempted++
	if outcome == domain.OutcomeCorrect {
		stats.Correct++
		r.session.Score++
	}
	r.session.BySubject[q.Subject] = stats
	if buzzed {
		r.session.BuzzLatencies = append(r.session.BuzzLatencies, latency)
	}
}

func (r *Runner) buildEntry() domain.ResultEntry {
	bySubject := make(map[string]domain.SubjectStats, len(r.session.BySubject))
	for subject, stats := range r.session.BySubject {
		bySubject[subject] = stats
	}
	var avg time.Duration
	if n := len(r.session.BuzzLatencies); n > 0 {
		var sum time.Duration
		for _, l := range r.session.BuzzLatencies {
			sum += l
		}
		avg = sum / time.Duration(n)
	}
	return domain.ResultEntry{
		ParticipantID:  r.session.ParticipantID,
		Score:          r.session.Score,
		Total:          len(r.questions),
		BySubject:      bySubject,
		AvgBuzzLatency: avg,
		CompletedAt:    r.clock.Now(),
	}
}

func (r *Runner) currentState() *questionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) setState(st *questionState) {
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()
}

// drainAnswers clears any answer left over from a previous question so a
// stale submission can never resolve the current one.
func (r *Runner) drainAnswers() {
	select {
	case <-r.answerCh:
	default:
	}
}

// emit never blocks: when the subscriber lags, the oldest buffered event is
// dropped in favor of the new one.
func (r *Runner) emit(e Event) {
	select {
	case r.events <- e:
	default:
		select {
		case <-r.events:
		default:
		}
		r.events <- e
	}
}

func answerMatches(q domain.Question, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))
}

// stopAndDrainTimer safely stops a timer and drains its channel, following
// the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
