package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/domain"
)

// NotificationSink publishes notifications to a per-user NATS subject.
// Delivery is fire-and-forget: NATS buffers publishes client-side, and the
// coordinator never waits on them.
type NotificationSink struct {
	nc      *nats.Conn
	subject string
}

// Connect dials NATS and returns a sink publishing under subjectPrefix
// (e.g. "buzzer.notifications").
func Connect(url, subjectPrefix string) (*NotificationSink, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NotificationSink{nc: nc, subject: subjectPrefix}, nil
}

func (s *NotificationSink) Send(_ context.Context, userID string, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.nc.Publish(s.subject+"."+userID, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (s *NotificationSink) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
