package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-buzzer-service/internal/domain"
)

// SettingsProvider resolves per-team timing settings from Postgres,
// falling back from the team row to the 'default' row to hardcoded defaults.
type SettingsProvider struct {
	pool *pgxpool.Pool
}

func NewSettingsProvider(pool *pgxpool.Pool) *SettingsProvider {
	return &SettingsProvider{pool: pool}
}

func (p *SettingsProvider) Get(ctx context.Context, teamID string) (domain.Settings, error) {
	if teamID != "" {
		s, err := p.load(ctx, teamID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Settings{}, err
		}
	}
	s, err := p.load(ctx, "default")
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Settings{}, err
	}
	return domain.DefaultSettings(), nil
}

func (p *SettingsProvider) load(ctx context.Context, teamID string) (domain.Settings, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM team_settings WHERE team_id=$1`, teamID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Settings{}, err
		}
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return fillDefaults(s), nil
}

// fillDefaults patches zero fields from the hardcoded defaults so a partial
// record never yields a zero-length timer.
func fillDefaults(s domain.Settings) domain.Settings {
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
