package engine

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/domain"
)

// Service wires the match engine's use cases: starting a practice session
// and joining a live match. It owns the collaborator handles and hands out
// runners ready to drive.
type Service struct {
	bank     QuestionBank
	settings SettingsProvider
	matches  MatchStore
	coord    *Coordinator
	clock    clockwork.Clock
}

func NewService(bank QuestionBank, settings SettingsProvider, matches MatchStore, coord *Coordinator, clock clockwork.Clock) *Service {
	return &Service{
		bank:     bank,
		settings: settings,
		matches:  matches,
		coord:    coord,
		clock:    clock,
	}
}

// StartPractice builds a solo session over the given question list. The
// completion coordinator is not involved; results surface only through the
// runner's event stream.
func (s *Service) StartPractice(ctx context.Context, participantID, teamID string, questionIDs []string) (*Runner, error) {
	if participantID == "" {
		return nil, domain.ErrNoParticipant
	}
	return s.buildRunner(ctx, "", participantID, teamID, questionIDs)
}

// JoinMatch builds a session for a roster member of a shared match. The
// first joiner flips the match from waiting to active; a lost CAS there is
// harmless, it just means someone else got in first.
func (s *Service) JoinMatch(ctx context.Context, matchID, participantID, teamID string) (*Runner, error) {
	if participantID == "" {
		return nil, domain.ErrNoParticipant
	}
	rec, err := s.matches.Read(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.MatchCompleted {
		return nil, domain.ErrMatchCompleted
	}
	if !contains(rec.Roster, participantID) {
		return nil, domain.ErrNotInRoster
	}
	if rec.Status == domain.MatchWaiting {
		activated, err := s.matches.CASStatus(ctx, matchID, domain.MatchWaiting, domain.MatchActive)
		if err != nil {
			return nil, fmt.Errorf("activate match: %w", err)
		}
		if activated {
			log.Info().Str("match_id", matchID).Msg("match activated")
		}
	}
	return s.buildRunner(ctx, matchID, participantID, teamID, rec.QuestionIDs)
}

func (s *Service) buildRunner(ctx context.Context, matchID, participantID, teamID string, questionIDs []string) (*Runner, error) {
	questions, err := s.bank.FetchByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	settings, err := s.settings.Get(ctx, teamID)
	if err != nil {
		log.Warn().Err(err).Str("team_id", teamID).Msg("settings lookup failed, using defaults")
		settings = domain.DefaultSettings()
	}

	session := &domain.Session{
		MatchID:       matchID,
		ParticipantID: participantID,
		QuestionIDs:   questionIDs,
		BySubject:     make(map[string]domain.SubjectStats),
	}
	return newRunner(session, questions, settings, s.clock, s.coord), nil
}
