package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/domain"
)

const defaultCompletionRetryDelay = 2 * time.Second

// Coordinator aggregates independently-finishing sessions into a single
// authoritative match-complete transition. Every participant's runner calls
// FinalizeParticipant as it finishes; correctness rests entirely on the
// atomic status CAS, which is safe to evaluate any number of times, so only
// the caller whose CAS succeeds performs the notification fan-out.
type Coordinator struct {
	matches    MatchStore
	results    ResultStore
	sink       NotificationSink
	clock      clockwork.Clock
	retryDelay time.Duration
}

func NewCoordinator(matches MatchStore, results ResultStore, sink NotificationSink, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		matches:    matches,
		results:    results,
		sink:       sink,
		clock:      clock,
		retryDelay: defaultCompletionRetryDelay,
	}
}

// FinalizeParticipant records the participant's result entry and attempts
// the match-complete transition. A duplicate entry is a logical no-op. The
// roster check gets one bounded retry in case this participant's own write
// has not yet become visible to the read; a missed opportunity here is
// picked up by the next finisher.
func (c *Coordinator) FinalizeParticipant(ctx context.Context, matchID, participantID string, entry domain.ResultEntry) error {
	if participantID == "" {
		return domain.ErrNoParticipant
	}

	err := c.results.Append(ctx, matchID, participantID, entry)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrResultExists):
		log.Debug().
			Str("match_id", matchID).
			Str("participant_id", participantID).
			Msg("result entry already recorded")
	default:
		return fmt.Errorf("append result: %w", err)
	}

	done, err := c.tryComplete(ctx, matchID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	c.clock.Sleep(c.retryDelay)
	if _, err := c.tryComplete(ctx, matchID); err != nil {
		// give up quietly; the next finisher's own check completes the match
		log.Warn().Err(err).
			Str("match_id", matchID).
			Str("participant_id", participantID).
			Msg("completion recheck failed")
	}
	return nil
}

// tryComplete reports whether the match is known finished: either it was
// already completed, or the roster is fully covered by result entries and
// the status transition happened (by us or a concurrent finisher).
func (c *Coordinator) tryComplete(ctx context.Context, matchID string) (bool, error) {
	rec, err := c.matches.Read(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("read match: %w", err)
	}
	if rec.Status == domain.MatchCompleted {
		return true, nil
	}

	finished, err := c.results.Participants(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("list result participants: %w", err)
	}
	if !rosterSatisfied(rec.Roster, finished) {
		return false, nil
	}

	won, err := c.matches.CASStatus(ctx, matchID, domain.MatchActive, domain.MatchCompleted)
	if err != nil {
		return false, fmt.Errorf("cas match status: %w", err)
	}
	if !won {
		// a concurrent finisher flipped the status; their fan-out counts
		log.Debug().Str("match_id", matchID).Msg("lost completion race")
		return true, nil
	}

	log.Info().
		Str("match_id", matchID).
		Int("roster_size", len(rec.Roster)).
		Msg("match completed")
	c.notify(ctx, rec)
	return true, nil
}

// notify fans out the match-end notification to every participant plus the
// organizer. Delivery is fire-and-forget: failures are logged and never
// block the coordinator's return.
func (c *Coordinator) notify(ctx context.Context, rec domain.MatchRecord) {
	n := domain.Notification{
		Type:    "match_end",
		MatchID: rec.ID,
		Message: "Your match has ended, results are in.",
	}
	targets := make([]string, 0, len(rec.Roster)+1)
	targets = append(targets, rec.Roster...)
	if rec.OrganizerID != "" && !contains(rec.Roster, rec.OrganizerID) {
		targets = append(targets, rec.OrganizerID)
	}
	for _, userID := range targets {
		if err := c.sink.Send(ctx, userID, n); err != nil {
			log.Warn().Err(err).
				Str("match_id", rec.ID).
				Str("user_id", userID).
				Msg("match-end notification failed")
		}
	}
}

func rosterSatisfied(roster, finished []string) bool {
	for _, id := range roster {
		if !contains(finished, id) {
			return false
		}
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
