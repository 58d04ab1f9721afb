package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/domain"
)

// NotificationSink records notifications in memory and logs them. Stands in
// for a push/email delivery service; also the assertion point in tests.
type NotificationSink struct {
	mu   sync.Mutex
	sent []SentNotification
}

// SentNotification pairs a delivered notification with its recipient.
type SentNotification struct {
	UserID       string
	Notification domain.Notification
}

func NewNotificationSink() *NotificationSink {
	return &NotificationSink{}
}

func (s *NotificationSink) Send(_ context.Context, userID string, n domain.Notification) error {
	s.mu.Lock()
	s.sent = append(s.sent, SentNotification{UserID: userID, Notification: n})
	s.mu.Unlock()
	log.Info().
		Str("user_id", userID).
		Str("type", n.Type).
		Str("match_id", n.MatchID).
		Msg("notification delivered")
	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *NotificationSink) Sent() []SentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentNotification, len(s.sent))
	copy(out, s.sent)
	return out
}
