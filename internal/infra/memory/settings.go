package memory

import (
	"context"
	"sync"

	"trivia-buzzer-service/internal/domain"
)

// defaultTeamKey is the team-agnostic fallback record.
const defaultTeamKey = "default"

// SettingsProvider resolves timing settings from an in-memory map: team
// record, then the default record, then hardcoded defaults.
type SettingsProvider struct {
	mu     sync.RWMutex
	byTeam map[string]domain.Settings
}

func NewSettingsProvider(byTeam map[string]domain.Settings) *SettingsProvider {
	if byTeam == nil {
		byTeam = make(map[string]domain.Settings)
	}
	return &SettingsProvider{byTeam: byTeam}
}

func (p *SettingsProvider) Get(_ context.Context, teamID string) (domain.Settings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if teamID != "" {
		if s, ok := p.byTeam[teamID]; ok {
			return normalize(s), nil
		}
	}
	if s, ok := p.byTeam[defaultTeamKey]; ok {
		return normalize(s), nil
	}
	return domain.DefaultSettings(), nil
}

// Set stores a team's settings; empty teamID updates the default record.
func (p *SettingsProvider) Set(teamID string, s domain.Settings) {
	if teamID == "" {
		teamID = defaultTeamKey
	}
	p.mu.Lock()
	p.byTeam[teamID] = s
	p.mu.Unlock()
}

// normalize fills zero fields from the hardcoded defaults so a partial
// record never produces a zero-length timer.
func normalize(s domain.Settings) domain.Settings {
	def := domain.DefaultSettings()
	if s.QuestionSeconds <= 0 {
		s.QuestionSeconds = def.QuestionSeconds
	}
	if s.HesitationSeconds <= 0 {
		s.HesitationSeconds = def.HesitationSeconds
	}
	if s.WordsPerMinute <= 0 {
		s.WordsPerMinute = def.WordsPerMinute
	}
	return s
}
