package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"trivia-buzzer-service/internal/engine"
)

// WSHandler upgrades HTTP requests to websockets and wires them into the
// match engine: one connection drives one participant's session.
type WSHandler struct {
	service  *engine.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *engine.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type buzzResultPayload struct {
	Won    bool   `json:"won"`
	Reason string `json:"reason,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS starts a session for the connecting participant. Query params:
// userId (required), matchId to join a match, or questionIds (comma
// separated) for a practice run; teamId selects timing settings.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	matchID := r.URL.Query().Get("matchId")
	teamID := r.URL.Query().Get("teamId")
	questionIDs := r.URL.Query().Get("questionIds")
	if userID == "" || (matchID == "" && questionIDs == "") {
		http.Error(w, "missing userId and one of matchId, questionIds", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()[:8]
	logger := log.With().Str("session", sessionID).Str("user_id", userID).Logger()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var runner *engine.Runner
	if matchID != "" {
		runner, err = h.service.JoinMatch(ctx, matchID, userID, teamID)
	} else {
		runner, err = h.service.StartPractice(ctx, userID, teamID, strings.Split(questionIDs, ","))
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- runner.Run(ctx)
	}()

	go func() {
		defer close(eventsDone)
		for event := range runner.Events() {
			select {
			case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
			case <-writerDone:
				return
			}
		}
	}()

	// trySend gives up when the writer is gone instead of blocking the reader
	trySend := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "buzz":
			result := runner.Buzz(userID)
			trySend(outboundMessage[any]{Type: "buzzResult", Payload: buzzResultPayload{
				Won:    result.Won,
				Reason: string(result.Reason),
			}})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := runner.SubmitAnswer(userID, payload.Answer); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		default:
			trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	// reader gone; abort the session if it is still running
	cancel()
	<-eventsDone
	if err := <-runnerDone; err != nil {
		// an abort after a client disconnect is expected, keep it quiet
		logger.Debug().Err(err).Msg("session ended with error")
	}
	close(send)
	<-writerDone
}
